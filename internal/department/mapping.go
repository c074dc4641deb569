package department

import (
	"fmt"
	"sort"
	"strings"
)

// Mapping 是跨博物馆的部门规范化表。
//
// 结构：museum code -> 原始部门名（小写、折叠空白）-> canonical 部门名；
// 另有反向索引 museum code -> canonical -> 原始部门名列表（保留原始大小写）。
//
// 约束：
// - 每个博物馆内是多对一：多个原始名可以指向同一个 canonical，但一个原始名只能指向一个 canonical
// - 查不到的原始名视为“未映射”，不是错误
// - 构造后只读；可被多个 goroutine 并发读取
type Mapping struct {
	canonical []string
	byName    map[string]string // 归一化 canonical 名 -> canonical
	forward   map[string]map[string]string
	reverse   map[string]map[string][]string
}

// New 校验并构造 Mapping。
//
// tables 的形态为 museum -> 原始名 -> canonical；所有 canonical 必须出现在 canonical 列表中。
func New(canonical []string, tables map[string]map[string]string) (Mapping, error) {
	known := make(map[string]struct{}, len(canonical))
	byName := make(map[string]string, len(canonical))
	names := make([]string, 0, len(canonical))
	for _, c := range canonical {
		c = strings.TrimSpace(c)
		if c == "" {
			return Mapping{}, fmt.Errorf("canonical 部门名不能为空")
		}
		if _, ok := byName[normRaw(c)]; ok {
			return Mapping{}, fmt.Errorf("重复的 canonical 部门名：%q", c)
		}
		known[c] = struct{}{}
		byName[normRaw(c)] = c
		names = append(names, c)
	}
	sort.Strings(names)

	m := Mapping{
		canonical: names,
		byName:    byName,
		forward:   make(map[string]map[string]string, len(tables)),
		reverse:   make(map[string]map[string][]string, len(tables)),
	}
	for museum, table := range tables {
		code := normMuseum(museum)
		if code == "" {
			return Mapping{}, fmt.Errorf("museum code 不能为空")
		}
		if _, ok := m.forward[code]; ok {
			return Mapping{}, fmt.Errorf("重复的 museum code：%q", code)
		}
		fwd := make(map[string]string, len(table))
		rev := make(map[string][]string)
		// 按原始名排序遍历：归一化后相同的多个写法只保留字典序最小的那个进入反向索引，结果与 map 顺序无关。
		raws := make([]string, 0, len(table))
		for raw := range table {
			raws = append(raws, raw)
		}
		sort.Strings(raws)
		for _, raw := range raws {
			target := table[raw]
			key := normRaw(raw)
			if key == "" {
				return Mapping{}, fmt.Errorf("%s：原始部门名不能为空", code)
			}
			if _, ok := known[target]; !ok {
				return Mapping{}, fmt.Errorf("%s：%q 指向未声明的 canonical 部门 %q", code, raw, target)
			}
			if prev, ok := fwd[key]; ok && prev != target {
				return Mapping{}, fmt.Errorf("%s：%q 同时指向 %q 与 %q", code, raw, prev, target)
			}
			if _, dup := fwd[key]; dup {
				continue
			}
			fwd[key] = target
			rev[target] = append(rev[target], strings.Join(strings.Fields(raw), " "))
		}
		for c := range rev {
			sort.Strings(rev[c])
		}
		m.forward[code] = fwd
		m.reverse[code] = rev
	}
	return m, nil
}

// Canonicalize 把某博物馆的原始部门名映射为 canonical 名；未映射时 ok=false。
// 比较时忽略大小写与多余空白。
func (m Mapping) Canonicalize(museum, raw string) (string, bool) {
	fwd, ok := m.forward[normMuseum(museum)]
	if !ok {
		return "", false
	}
	c, ok := fwd[normRaw(raw)]
	return c, ok
}

// CanonicalDepartments 返回全部 canonical 部门名（已排序的副本），用于统一的过滤选项。
func (m Mapping) CanonicalDepartments() []string {
	return append([]string(nil), m.canonical...)
}

// IsCanonical 判断 name 是否是已声明的 canonical 部门名。
func (m Mapping) IsCanonical(name string) bool {
	i := sort.SearchStrings(m.canonical, name)
	return i < len(m.canonical) && m.canonical[i] == name
}

// Resolve 把用户输入的部门名解析为 canonical 的标准写法（忽略大小写与多余空白）；
// 不是 canonical 名（包括某博物馆的原始部门名）时 ok=false。
func (m Mapping) Resolve(name string) (string, bool) {
	c, ok := m.byName[normRaw(name)]
	return c, ok
}

// RawNames 返回某博物馆中映射到 canonical 的全部原始部门名（已排序的副本）。
func (m Mapping) RawNames(museum, canonical string) []string {
	rev, ok := m.reverse[normMuseum(museum)]
	if !ok {
		return nil
	}
	return append([]string(nil), rev[canonical]...)
}

// Museums 返回有映射表的 museum code（已排序）。
func (m Mapping) Museums() []string {
	out := make([]string, 0, len(m.forward))
	for code := range m.forward {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

func normMuseum(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func normRaw(s string) string { return strings.ToLower(strings.Join(strings.Fields(s), " ")) }
