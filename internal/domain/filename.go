package domain

import (
	"strings"
	"unicode/utf8"
)

const maxFilenameBase = 100

var filenameReplacer = strings.NewReplacer(
	"<", "", ">", "", ":", "", `"`, "",
	"/", "", `\`, "", "|", "", "?", "", "*", "",
)

// Filename 返回下载文件名：<MUSEUM>-<title>-<id>.jpg。
//
// 规则：
// - 去掉 Windows/Unix 下的非法字符 <>:"/\|?*
// - 空白折叠为单个空格
// - "<MUSEUM>-<title>" 部分最多 100 个字符（按 rune 截断，避免切坏 UTF-8）
// - id 同样去掉非法字符，保证不会引入路径分隔符
func (a Artwork) Filename() string {
	base := strings.ToUpper(a.Museum) + "-" + a.Title
	base = normSpace(filenameReplacer.Replace(base))
	if utf8.RuneCountInString(base) > maxFilenameBase {
		base = strings.TrimSpace(string([]rune(base)[:maxFilenameBase]))
	}
	id := normSpace(filenameReplacer.Replace(a.ID))
	return base + "-" + id + ".jpg"
}
