package domain

import (
	"fmt"
	"sort"
	"strings"
)

// 跳过原因（面向用户的分类标签）。
// adapter 层：来源记录无法构成 Artwork；engine 层：记录被过滤条件排除。
const (
	SkipMissingIdentifier = "missing identifier"
	SkipMissingImage      = "missing image"
	SkipInvalidRecord     = "invalid record"

	SkipDimensionsUnknown   = "dimensions unknown"
	SkipOrientationMismatch = "orientation mismatch"
	SkipResolutionBelow     = "resolution below threshold"
	SkipDepartmentMismatch  = "department mismatch"
	SkipYearOutOfRange      = "year out of range"
)

// AdapterResult 是一次查询的结果集。
//
// 不变量：Fetched == len(Artworks) + sum(Skipped)。
// 每条来源记录要么成为一个 Artwork，要么恰好计入一个跳过原因，不允许静默丢弃。
//
// 结果在构造后不再修改：engine 返回的是新的 AdapterResult。
type AdapterResult struct {
	Museum   string         `json:"museum"`
	Fetched  int            `json:"fetched"`
	Artworks []Artwork      `json:"artworks"`
	Skipped  map[string]int `json:"skipped"`

	// Applied 记录来源 API 原生处理了哪些条件（条件名 -> 说明）。
	Applied map[string]string `json:"applied,omitempty"`
	// Warnings 是面向用户的非致命提示（例如部门在该博物馆没有映射）。
	Warnings []string `json:"warnings,omitempty"`
}

// ResultBuilder 按来源顺序逐条累积结果；adapter 用它保证计数不变量。
type ResultBuilder struct {
	r AdapterResult
}

func NewResultBuilder(museum string) *ResultBuilder {
	return &ResultBuilder{r: AdapterResult{
		Museum:   museum,
		Artworks: []Artwork{},
		Skipped:  map[string]int{},
		Applied:  map[string]string{},
	}}
}

// Keep 记录一条成功映射的作品。
func (b *ResultBuilder) Keep(a Artwork) {
	b.r.Fetched++
	b.r.Artworks = append(b.r.Artworks, a)
}

// Skip 记录一条被跳过的来源记录。
func (b *ResultBuilder) Skip(reason string) {
	b.r.Fetched++
	b.r.Skipped[reason]++
}

// Applied 记录某个条件已由来源原生处理。
func (b *ResultBuilder) Applied(filter, desc string) {
	b.r.Applied[filter] = desc
}

// Warn 追加一条面向用户的提示（去重）。
func (b *ResultBuilder) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	for _, w := range b.r.Warnings {
		if w == msg {
			return
		}
	}
	b.r.Warnings = append(b.r.Warnings, msg)
}

// Result 返回累积结果；之后不应再调用 builder。
func (b *ResultBuilder) Result() AdapterResult { return b.r }

// SkippedTotal 返回被跳过的记录总数。
func (r AdapterResult) SkippedTotal() int {
	n := 0
	for _, c := range r.Skipped {
		n += c
	}
	return n
}

// SkipReasons 返回按原因字典序排序的原因列表（用于稳定输出）。
func (r AdapterResult) SkipReasons() []string {
	out := make([]string, 0, len(r.Skipped))
	for k, c := range r.Skipped {
		if c > 0 {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Summary 生成 "N fetched, M skipped, reasons: ..." 形式的一行摘要。
func (r AdapterResult) Summary() string {
	skipped := r.SkippedTotal()
	if skipped == 0 {
		return fmt.Sprintf("%d fetched, %d kept, 0 skipped", r.Fetched, len(r.Artworks))
	}
	reasons := r.SkipReasons()
	parts := make([]string, 0, len(reasons))
	for _, k := range reasons {
		parts = append(parts, fmt.Sprintf("%s=%d", k, r.Skipped[k]))
	}
	return fmt.Sprintf("%d fetched, %d kept, %d skipped, reasons: %s", r.Fetched, len(r.Artworks), skipped, strings.Join(parts, ", "))
}
