package museum

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// SourceUnavailableError 表示远端 API 不可达、超时或返回了非 2xx 状态码。
// 可恢复：调用方可以重试或切换博物馆。
type SourceUnavailableError struct {
	Museum     string
	URL        string
	StatusCode int // 0 表示传输层失败（没有拿到 HTTP 响应）
	Err        error
}

func (e *SourceUnavailableError) Error() string {
	if e == nil {
		return "source unavailable"
	}
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s 暂不可用：HTTP %d", e.Museum, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s 暂不可用：%v", e.Museum, e.Err)
	default:
		return e.Museum + " 暂不可用"
	}
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// Timeout 表示失败是否由超时引起（context deadline 或 net.Error.Timeout）。
func (e *SourceUnavailableError) Timeout() bool {
	if e == nil || e.Err == nil {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// SourceResponseError 表示响应无法解析为预期的结构。
// 可恢复：调用方按“零结果 + 提示”处理。
type SourceResponseError struct {
	Museum string
	URL    string
	Err    error
}

func (e *SourceResponseError) Error() string {
	if e == nil {
		return "source response error"
	}
	return fmt.Sprintf("%s 返回了无法解析的响应：%v", e.Museum, e.Err)
}

func (e *SourceResponseError) Unwrap() error { return e.Err }

// UnknownMuseumError 表示注册表中没有该 museum code。
type UnknownMuseumError struct {
	Code      string
	Available []string
}

func (e *UnknownMuseumError) Error() string {
	avail := strings.Join(e.Available, ", ")
	if avail == "" {
		avail = "none"
	}
	return fmt.Sprintf("未知博物馆：%q（可用：%s）", e.Code, avail)
}

// DuplicateRegistrationError 表示同一个 museum code 被注册了两次。
type DuplicateRegistrationError struct {
	Code string
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("重复注册的博物馆：%q", e.Code)
}

// IsRecoverable 判断错误是否属于“换个博物馆/稍后重试即可”的来源错误。
func IsRecoverable(err error) bool {
	var ue *SourceUnavailableError
	if errors.As(err, &ue) {
		return true
	}
	var re *SourceResponseError
	return errors.As(err, &re)
}
