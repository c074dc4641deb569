package museum

import (
	"fmt"
	"sort"
	"strings"
)

// Registry 是 adapter 注册表（按 museum code 索引）。
//
// 约定：进程启动时一次性注册，之后只读；只读阶段可被并发读取，无需加锁。
type Registry struct {
	byCode map[string]Adapter
}

// NewRegistry 依次注册 adapters；任一注册失败即返回错误。
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{byCode: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		if a == nil {
			return nil, fmt.Errorf("adapter 不能为空")
		}
		if err := r.Register(a.Code(), a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register 以 code 注册 adapter；code 已存在时返回 *DuplicateRegistrationError。
func (r *Registry) Register(code string, a Adapter) error {
	if a == nil {
		return fmt.Errorf("adapter 不能为空")
	}
	code = normCode(code)
	if code == "" {
		return fmt.Errorf("museum code 不能为空")
	}
	if r.byCode == nil {
		r.byCode = make(map[string]Adapter)
	}
	if _, ok := r.byCode[code]; ok {
		return &DuplicateRegistrationError{Code: code}
	}
	r.byCode[code] = a
	return nil
}

// Resolve 返回 code 对应的 adapter；不存在时返回 *UnknownMuseumError。
func (r *Registry) Resolve(code string) (Adapter, error) {
	code = normCode(code)
	if r != nil {
		if a, ok := r.byCode[code]; ok {
			return a, nil
		}
	}
	return nil, &UnknownMuseumError{Code: code, Available: r.Codes()}
}

// Codes 返回已注册的 code（字典序）。
func (r *Registry) Codes() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.byCode))
	for code := range r.byCode {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Adapters 返回已注册的 adapter（按 code 字典序）。
func (r *Registry) Adapters() []Adapter {
	codes := r.Codes()
	out := make([]Adapter, 0, len(codes))
	for _, c := range codes {
		out = append(out, r.byCode[c])
	}
	return out
}

func normCode(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
