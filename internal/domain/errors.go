package domain

import (
	"errors"
	"fmt"
)

// ValidationError 表示调用方构造了非法的 Artwork/SearchFilters。
// 这是调用方 bug：立即返回，绝不静默替换为默认值。
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "validation error"
	}
	if e.Field == "" {
		return "参数无效：" + e.Reason
	}
	return fmt.Sprintf("参数无效：%s %s", e.Field, e.Reason)
}

// IsValidation 判断 err 链中是否包含 *ValidationError。
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
