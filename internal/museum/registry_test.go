package museum

import (
	"context"
	"errors"
	"testing"

	"github.com/John-Robertt/artfinder/internal/domain"
)

type stubAdapter struct {
	code string
}

func (a stubAdapter) Code() string { return a.code }
func (a stubAdapter) Name() string { return "Stub " + a.code }
func (a stubAdapter) Fetch(ctx context.Context, f domain.SearchFilters) (domain.AdapterResult, error) {
	return domain.NewResultBuilder(a.code).Result(), nil
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	reg, err := NewRegistry(stubAdapter{code: "cma"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	_, err = reg.Resolve("unknown_code")
	var ue *UnknownMuseumError
	if !errors.As(err, &ue) {
		t.Fatalf("期望 *UnknownMuseumError，实际：%v", err)
	}
	if ue.Code != "unknown_code" || len(ue.Available) != 1 || ue.Available[0] != "cma" {
		t.Fatalf("错误内容不符合预期：%+v", ue)
	}
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if err := reg.Register("cma", stubAdapter{code: "cma"}); err != nil {
		t.Fatalf("首次注册不应失败：%v", err)
	}
	err = reg.Register(" CMA ", stubAdapter{code: "cma"})
	var de *DuplicateRegistrationError
	if !errors.As(err, &de) {
		t.Fatalf("期望 *DuplicateRegistrationError，实际：%v", err)
	}
	if de.Code != "cma" {
		t.Fatalf("期望 code=cma，实际=%q", de.Code)
	}

	if _, err := NewRegistry(stubAdapter{code: "aic"}, stubAdapter{code: "aic"}); !errors.As(err, &de) {
		t.Fatalf("NewRegistry 也应拒绝重复 code，实际：%v", err)
	}
}

func TestRegistry_ResolveCaseInsensitiveAndListing(t *testing.T) {
	reg, err := NewRegistry(stubAdapter{code: "cma"}, stubAdapter{code: "aic"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	a, err := reg.Resolve("AIC")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if a.Code() != "aic" {
		t.Fatalf("期望 aic，实际 %q", a.Code())
	}

	codes := reg.Codes()
	if len(codes) != 2 || codes[0] != "aic" || codes[1] != "cma" {
		t.Fatalf("codes 不符合预期：%v", codes)
	}
	adapters := reg.Adapters()
	if len(adapters) != 2 || adapters[1].Code() != "cma" {
		t.Fatalf("adapters 不符合预期：%v", adapters)
	}
}

func TestRegistry_RejectsEmpty(t *testing.T) {
	reg, _ := NewRegistry()
	if err := reg.Register("", stubAdapter{code: "x"}); err == nil {
		t.Fatalf("空 code 应返回错误")
	}
	if err := reg.Register("x", nil); err == nil {
		t.Fatalf("nil adapter 应返回错误")
	}
}
