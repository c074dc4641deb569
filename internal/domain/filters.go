package domain

import (
	"strings"
)

const (
	// DefaultLimit 是向来源请求的默认记录数。
	DefaultLimit = 100
	// MaxLimit 是单次查询允许请求的最大记录数。
	MaxLimit = 1000
)

// SearchFilters 是统一的查询条件；各 adapter 自行决定哪些条件可以下推到远端 API。
//
// 可选条件用零值/nil 表示“不限”：
// - Department 为空：不限部门（否则必须是 canonical 部门名）
// - YearMin/YearMax 为 nil：对应方向不设界（闭区间）
// - MinResolution 为 nil：不限分辨率；否则作用于 min(宽, 高)
//
// 请通过 NewSearchFilters 构造；值语义传递，构造后不再修改。
type SearchFilters struct {
	Museum        string      `json:"museum"`
	Orientation   Orientation `json:"orientation"`
	Department    string      `json:"department,omitempty"`
	YearMin       *int        `json:"year_min,omitempty"`
	YearMax       *int        `json:"year_max,omitempty"`
	MinResolution *int        `json:"min_resolution,omitempty"`

	Query string `json:"query,omitempty"`
	Limit int    `json:"limit"`
}

// NewSearchFilters 规范化并校验查询条件。
func NewSearchFilters(f SearchFilters) (SearchFilters, error) {
	f.Museum = strings.ToLower(strings.TrimSpace(f.Museum))
	f.Department = strings.TrimSpace(f.Department)
	f.Query = strings.TrimSpace(f.Query)

	o, err := ParseOrientation(string(f.Orientation))
	if err != nil {
		return SearchFilters{}, err
	}
	f.Orientation = o

	if f.YearMin != nil && f.YearMax != nil && *f.YearMin > *f.YearMax {
		return SearchFilters{}, invalid("year", "范围无效：%d > %d", *f.YearMin, *f.YearMax)
	}
	if f.MinResolution != nil && *f.MinResolution < 0 {
		return SearchFilters{}, invalid("min_resolution", "不能为负数，实际 %d", *f.MinResolution)
	}

	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit < 1 || f.Limit > MaxLimit {
		return SearchFilters{}, invalid("limit", "必须在 [1, %d] 内，实际 %d", MaxLimit, f.Limit)
	}

	// 复制指针目标，避免调用方事后修改影响已构造的条件。
	f.YearMin = cloneInt(f.YearMin)
	f.YearMax = cloneInt(f.YearMax)
	f.MinResolution = cloneInt(f.MinResolution)
	return f, nil
}

// ParseOrientation 解析方向过滤条件（大小写不敏感，空串视为 any）。
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(OrientationAny):
		return OrientationAny, nil
	case string(OrientationPortrait):
		return OrientationPortrait, nil
	case string(OrientationLandscape):
		return OrientationLandscape, nil
	default:
		return "", invalid("orientation", "只能是 any、portrait 或 landscape，实际 %q", s)
	}
}

// HasYearBound 表示是否设置了任一年份边界。
func (f SearchFilters) HasYearBound() bool { return f.YearMin != nil || f.YearMax != nil }

// Int 返回 v 的指针，便于构造可选条件。
func Int(v int) *int { return &v }

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
