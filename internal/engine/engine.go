// Package engine 在 adapter 结果之上执行客户端过滤（来源 API 无法原生处理的条件）。
package engine

import (
	"github.com/John-Robertt/artfinder/internal/domain"
)

// Apply 按 f 过滤 r.Artworks，返回新的结果；r 本身不被修改。
//
// 每件作品依次检查以下规则，命中第一条即跳过：
//  1. 要求方向但尺寸未知      -> dimensions unknown
//  2. 方向不符                -> orientation mismatch
//  3. min(宽,高) 低于阈值或未知 -> resolution below threshold
//  4. canonical 部门不符（含未映射） -> department mismatch
//  5. 年份区间完全落在 [YearMin, YearMax] 之外 -> year out of range
//
// 保留的作品维持原顺序；跳过计数累加到输入 skip map 的副本上。
// 保留下来的作品必然满足全部规则，所以 Apply 是幂等的。
func Apply(r domain.AdapterResult, f domain.SearchFilters) domain.AdapterResult {
	out := domain.AdapterResult{
		Museum:   r.Museum,
		Fetched:  r.Fetched,
		Artworks: make([]domain.Artwork, 0, len(r.Artworks)),
		Skipped:  make(map[string]int, len(r.Skipped)+1),
		Applied:  make(map[string]string, len(r.Applied)),
		Warnings: append([]string(nil), r.Warnings...),
	}
	for k, v := range r.Skipped {
		out.Skipped[k] = v
	}
	for k, v := range r.Applied {
		out.Applied[k] = v
	}

	for _, a := range r.Artworks {
		if reason := Reject(a, f); reason != "" {
			out.Skipped[reason]++
			continue
		}
		out.Artworks = append(out.Artworks, a)
	}
	return out
}

// Reject 返回 a 不满足 f 的第一条原因；满足全部条件时返回空串。
func Reject(a domain.Artwork, f domain.SearchFilters) string {
	if f.Orientation == domain.OrientationPortrait || f.Orientation == domain.OrientationLandscape {
		o := a.Orientation()
		if o == domain.OrientationUnknown {
			return domain.SkipDimensionsUnknown
		}
		if o != f.Orientation {
			return domain.SkipOrientationMismatch
		}
	}

	if f.MinResolution != nil {
		d, ok := a.MinDimension()
		if !ok || d < *f.MinResolution {
			return domain.SkipResolutionBelow
		}
	}

	if f.Department != "" && a.CanonicalDepartment != f.Department {
		return domain.SkipDepartmentMismatch
	}

	if a.Years != nil {
		if f.YearMin != nil && a.Years.End < *f.YearMin {
			return domain.SkipYearOutOfRange
		}
		if f.YearMax != nil && a.Years.Start > *f.YearMax {
			return domain.SkipYearOutOfRange
		}
	}
	return ""
}
