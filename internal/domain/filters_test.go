package domain

import (
	"testing"
)

func TestNewSearchFilters_Defaults(t *testing.T) {
	f, err := NewSearchFilters(SearchFilters{Museum: " AIC "})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if f.Museum != "aic" {
		t.Fatalf("期望 museum=aic，实际=%q", f.Museum)
	}
	if f.Orientation != OrientationAny {
		t.Fatalf("期望 orientation=any，实际=%q", f.Orientation)
	}
	if f.Limit != DefaultLimit {
		t.Fatalf("期望 limit=%d，实际=%d", DefaultLimit, f.Limit)
	}
	if f.HasYearBound() {
		t.Fatalf("不应有年份边界")
	}
}

func TestNewSearchFilters_Validation(t *testing.T) {
	cases := []struct {
		name string
		in   SearchFilters
	}{
		{name: "reversed years", in: SearchFilters{YearMin: Int(1900), YearMax: Int(1800)}},
		{name: "negative resolution", in: SearchFilters{MinResolution: Int(-1)}},
		{name: "bad orientation", in: SearchFilters{Orientation: "square"}},
		{name: "limit too big", in: SearchFilters{Limit: MaxLimit + 1}},
		{name: "negative limit", in: SearchFilters{Limit: -5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewSearchFilters(tc.in); !IsValidation(err) {
				t.Fatalf("期望 ValidationError，实际：%v", err)
			}
		})
	}
}

func TestNewSearchFilters_EqualYearsAndZeroResolution(t *testing.T) {
	f, err := NewSearchFilters(SearchFilters{YearMin: Int(1900), YearMax: Int(1900), MinResolution: Int(0), Orientation: "Portrait"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if f.Orientation != OrientationPortrait {
		t.Fatalf("期望 portrait，实际 %q", f.Orientation)
	}
}

func TestNewSearchFilters_CopiesPointers(t *testing.T) {
	y := 1850
	f, err := NewSearchFilters(SearchFilters{YearMin: &y})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	y = 2000
	if *f.YearMin != 1850 {
		t.Fatalf("YearMin 未被复制：%d", *f.YearMin)
	}
}
