package museum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxBodyBytes 限制单个 API 响应的大小；博物馆 API 一页数据远小于该值。
const maxBodyBytes = 32 << 20

// GetJSON 发起 GET 请求并把响应解码到 v，同时把失败归类为来源错误：
// - 请求失败 / 非 2xx / 读 body 失败 -> *SourceUnavailableError
// - JSON 无法解码 -> *SourceResponseError
func GetJSON(ctx context.Context, c *http.Client, museum, u string, header http.Header, v any) error {
	if c == nil {
		return errors.New("http client 不能为空")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, hv := range vs {
			req.Header.Add(k, hv)
		}
	}

	resp, err := c.Do(req)
	if err != nil {
		return &SourceUnavailableError{Museum: museum, URL: u, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// 读一小段 body 方便排查（博物馆 API 的错误信息通常是短 JSON）。
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &SourceUnavailableError{
			Museum:     museum,
			URL:        u,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &SourceUnavailableError{Museum: museum, URL: u, Err: err}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &SourceResponseError{Museum: museum, URL: u, Err: err}
	}
	return nil
}
