package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/John-Robertt/artfinder/internal/department"
	"github.com/John-Robertt/artfinder/internal/domain"
	"github.com/John-Robertt/artfinder/internal/engine"
	"github.com/John-Robertt/artfinder/internal/museum"
)

// Attempt 记录一次博物馆尝试（用于解释 fallback 原因）。
// 注意：这是内部执行轨迹，由 Report 决定如何呈现。
type Attempt struct {
	Museum string // museum code（小写）
	Stage  string // "resolve" / "fetch" / "ok"
	Err    error  // nil when Stage=="ok"
}

// Observer 用于把检索过程事件从核心流程中解耦出来（CLI 进度输出）。
// search 包只发事件，不做任何输出。
type Observer interface {
	OnAttempt(a Attempt, dur time.Duration)
}

// Service 串起 校验 -> 解析 museum -> Fetch -> engine.Apply。
// 只持有只读依赖，可被并发调用。
type Service struct {
	Registry *museum.Registry
	// Departments 为 nil 时使用 department.Default()；department 条件必须是其中的 canonical 名。
	Departments *department.Mapping
	Logger      *zap.Logger
	Observer    Observer
}

// Search 在单个博物馆上执行一次查询。
func (s Service) Search(ctx context.Context, code string, f domain.SearchFilters) (domain.AdapterResult, error) {
	f, err := s.Normalize(f)
	if err != nil {
		return domain.AdapterResult{}, err
	}
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		code = f.Museum
	}
	a, err := s.Registry.Resolve(code)
	if err != nil {
		return domain.AdapterResult{}, err
	}
	f.Museum = a.Code()

	raw, err := a.Fetch(ctx, f)
	if err != nil {
		return domain.AdapterResult{}, err
	}
	r := engine.Apply(raw, f)

	s.logger().Info("检索完成",
		zap.String("museum", r.Museum),
		zap.String("summary", r.Summary()),
	)
	for _, w := range r.Warnings {
		s.logger().Warn(w, zap.String("museum", r.Museum))
	}
	return r, nil
}

// SearchWithFallback 按 codes 顺序尝试，只有来源错误（不可用/响应异常）才换下一个博物馆；
// 校验错误与未知 museum 立即返回。
//
// 返回值：
// - r：成功博物馆的结果
// - used：最终成功的 museum code
// - attempts：尝试链路（含成功的一次）
func (s Service) SearchWithFallback(ctx context.Context, codes []string, f domain.SearchFilters) (r domain.AdapterResult, used string, attempts []Attempt, err error) {
	if len(codes) == 0 {
		return domain.AdapterResult{}, "", nil, fmt.Errorf("museum 列表不能为空")
	}
	if _, err := s.Normalize(f); err != nil {
		return domain.AdapterResult{}, "", nil, err
	}

	var lastErr error
	for _, code := range codes {
		code = strings.ToLower(strings.TrimSpace(code))
		started := time.Now()

		if _, rerr := s.Registry.Resolve(code); rerr != nil {
			attempts = s.record(attempts, Attempt{Museum: code, Stage: "resolve", Err: rerr}, started)
			return domain.AdapterResult{}, "", attempts, rerr
		}

		res, serr := s.Search(ctx, code, f)
		if serr != nil {
			attempts = s.record(attempts, Attempt{Museum: code, Stage: "fetch", Err: serr}, started)
			if !museum.IsRecoverable(serr) || ctx.Err() != nil {
				return domain.AdapterResult{}, "", attempts, serr
			}
			s.logger().Warn("博物馆不可用，尝试下一个", zap.String("museum", code), zap.Error(serr))
			lastErr = serr
			continue
		}

		attempts = s.record(attempts, Attempt{Museum: code, Stage: "ok"}, started)
		return res, code, attempts, nil
	}
	return domain.AdapterResult{}, "", attempts, lastErr
}

// FallbackOrder 返回 requested 在前、其余已注册博物馆按 code 顺序在后的尝试顺序。
func (s Service) FallbackOrder(requested string) []string {
	requested = strings.ToLower(strings.TrimSpace(requested))
	out := []string{requested}
	for _, c := range s.Registry.Codes() {
		if c != requested {
			out = append(out, c)
		}
	}
	return out
}

// Normalize 校验查询条件，并把 department 解析为 canonical 的标准写法（忽略大小写）。
// 不是 canonical 名的 department（拼写错误、某博物馆的原始部门名）返回 *domain.ValidationError。
func (s Service) Normalize(f domain.SearchFilters) (domain.SearchFilters, error) {
	f, err := domain.NewSearchFilters(f)
	if err != nil || f.Department == "" {
		return f, err
	}
	m := s.departments()
	c, ok := m.Resolve(f.Department)
	if !ok {
		return domain.SearchFilters{}, &domain.ValidationError{
			Field:  "department",
			Reason: fmt.Sprintf("必须是 canonical 部门名（%s），实际 %q", strings.Join(m.CanonicalDepartments(), "、"), f.Department),
		}
	}
	f.Department = c
	return f, nil
}

func (s Service) departments() department.Mapping {
	if s.Departments == nil {
		return department.Default()
	}
	return *s.Departments
}

func (s Service) record(attempts []Attempt, a Attempt, started time.Time) []Attempt {
	if s.Observer != nil {
		s.Observer.OnAttempt(a, time.Since(started))
	}
	return append(attempts, a)
}

func (s Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// ErrorCode 把错误归类为 report 中的稳定错误码。
func ErrorCode(err error) string {
	var (
		ve *domain.ValidationError
		um *museum.UnknownMuseumError
		su *museum.SourceUnavailableError
		sr *museum.SourceResponseError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return domain.ErrCodeValidation
	case errors.As(err, &um):
		return domain.ErrCodeUnknownMuseum
	case errors.As(err, &sr):
		return domain.ErrCodeSourceResponse
	case errors.As(err, &su):
		return domain.ErrCodeSourceUnavailable
	default:
		return domain.ErrCodeSourceUnavailable
	}
}
