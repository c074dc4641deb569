package museum

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/John-Robertt/artfinder/internal/domain"
)

// FlexInt 兼容 JSON 中以数字或数字字符串表示的整数（部分 API 的尺寸字段是字符串）。
// null、空串以及无法解析的值都视为“缺失”。
type FlexInt struct {
	Value int
	Valid bool
}

func (n *FlexInt) UnmarshalJSON(b []byte) error {
	*n = FlexInt{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		s = strings.TrimSpace(s)
	}
	if s == "" {
		return nil
	}
	if i, err := strconv.Atoi(s); err == nil {
		*n = FlexInt{Value: i, Valid: true}
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*n = FlexInt{Value: int(f), Valid: true}
	}
	return nil
}

// Ptr 在值有效时返回其指针。
func (n FlexInt) Ptr() *int {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// FlexString 兼容 JSON 中以字符串、数字或字符串数组表示的文本字段（数组取第一个非空元素）。
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	*s = ""
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	switch b[0] {
	case '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexString(strings.TrimSpace(v))
	case '[':
		var vs []FlexString
		if err := json.Unmarshal(b, &vs); err != nil {
			return err
		}
		for _, v := range vs {
			if v != "" {
				*s = v
				break
			}
		}
	case '{':
		// 对象没有统一的文本表示，视为缺失。
	default:
		*s = FlexString(string(b))
	}
	return nil
}

// Size 在宽高都为正数时返回 ImageSize，否则返回 nil（尺寸未知）。
func Size(w, h FlexInt) *domain.ImageSize {
	if !w.Valid || !h.Valid || w.Value <= 0 || h.Value <= 0 {
		return nil
	}
	return &domain.ImageSize{Width: w.Value, Height: h.Value}
}

// Years 把来源的起止年份组装为 YearRange：
// 只有一端时视为单一年份；两端颠倒时交换；都缺失时返回 nil。
func Years(start, end FlexInt) *domain.YearRange {
	switch {
	case start.Valid && end.Valid:
		if start.Value > end.Value {
			start, end = end, start
		}
		return &domain.YearRange{Start: start.Value, End: end.Value}
	case start.Valid:
		return &domain.YearRange{Start: start.Value, End: start.Value}
	case end.Valid:
		return &domain.YearRange{Start: end.Value, End: end.Value}
	default:
		return nil
	}
}

// CheckImageURL 要求图片地址是 http(s) 绝对地址：下载器无法解析相对路径或其它协议。
func CheckImageURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("image_url 无法解析：%w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("image_url 不是 http(s) 绝对地址：%q", raw)
	}
	return nil
}
