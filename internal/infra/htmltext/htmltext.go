package htmltext

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockSelector 列出会产生换行的块级元素。
const blockSelector = "p, div, br, li, h1, h2, h3, h4, h5, h6, blockquote"

// lineMark 标记块级元素边界；源文本中的换行只是普通空白。
const lineMark = "\u2029"

// ToText 把来源 API 中的 HTML 片段（例如作品描述）转换为纯文本。
//
// 规则：
// - 块级元素之间用换行分隔，行内空白折叠为单个空格
// - 不含标签的输入原样返回（仅折叠空白）
// - 解析失败时退化为折叠空白后的原文，绝不返回错误（描述字段只是展示信息）
func ToText(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return ""
	}
	if !strings.Contains(fragment, "<") {
		return normSpace(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return normSpace(fragment)
	}

	// goquery 不会执行脚本/样式，但其文本仍会出现在 Text() 中，需要先移除。
	doc.Find("script, style").Remove()
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml(lineMark)
	})

	lines := strings.Split(doc.Text(), lineMark)
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = normSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }
