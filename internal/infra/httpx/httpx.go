package httpx

import (
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultRetryMax = 2
	defaultBackoff  = 500 * time.Millisecond

	// UserAgent 是所有请求默认携带的标识（博物馆 API 要求调用方自报身份）。
	UserAgent = "artfinder/1.0 (+https://github.com/John-Robertt/artfinder)"
)

// Options 描述 API/图片 client 的网络策略。零值可用。
type Options struct {
	// Timeout 是单次请求（含重试）的总超时；<=0 时使用默认值。
	Timeout time.Duration
	// ProxyURL 非空时所有请求走该代理。
	ProxyURL string
	// InsecureSkipVerify 跳过 TLS 证书校验（仅用于企业代理等受控环境）。
	InsecureSkipVerify bool
	// UserAgent 为空时使用 UserAgent 常量。
	UserAgent string
}

// Transport 把“固定 UA + 代理 + 有界重试”固化为统一策略。
//
// adapter 只负责“构造查询 + 映射字段”，不关心网络策略细节。
type Transport struct {
	Base http.RoundTripper

	UserAgent string

	// RetryMax 表示最大重试次数（不含首次尝试）。例如 2 表示最多 3 次尝试。
	RetryMax int
	// Backoff 是第 n 次重试前等待 n*Backoff。
	Backoff time.Duration
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	// 只对“可重放”的请求做重试：GET/HEAD 且无 body。
	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && (req.Body == nil || req.Body == http.NoBody)
	max := t.RetryMax
	if max < 0 || !canRetry {
		max = 0
	}

	var lastErr error
	for attempt := 0; attempt <= max; attempt++ {
		if attempt > 0 {
			if err := t.wait(req, attempt); err != nil {
				return nil, err
			}
		}

		r := req.Clone(req.Context())
		if r.Header.Get("User-Agent") == "" {
			r.Header.Set("User-Agent", t.userAgent())
		}

		resp, err := t.Base.RoundTrip(r)
		if err != nil {
			lastErr = err
			if req.Context().Err() != nil {
				// ctx 已取消：不再重试，直接返回最后错误（更可解释）。
				return nil, lastErr
			}
			continue
		}
		if !retryableStatus(resp.StatusCode) || attempt == max {
			return resp, nil
		}
		// 丢弃即将重试的响应，保证连接可复用。
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
	}
	return nil, lastErr
}

func (t *Transport) wait(req *http.Request, attempt int) error {
	d := t.Backoff
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(time.Duration(attempt) * d)
	defer timer.Stop()
	select {
	case <-req.Context().Done():
		return req.Context().Err()
	case <-timer.C:
		return nil
	}
}

func (t *Transport) userAgent() string {
	if s := strings.TrimSpace(t.UserAgent); s != "" {
		return s
	}
	return UserAgent
}

// retryableStatus 只对限流与网关类瞬时错误重试；4xx 其余状态重试无意义。
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// NewClient 构造用于博物馆 API 与图片下载的 HTTP client。
//
// 规则：
// - ProxyURL 非空：所有请求走代理
// - 固定标识 UA（可覆盖）
// - 有界重试 + 总超时
func NewClient(opts Options) (*http.Client, error) {
	base := &http.Transport{
		Proxy:                 nil,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 20 * time.Second,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
	}

	if proxyURL := strings.TrimSpace(opts.ProxyURL); proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, errors.New("proxy url 缺少 scheme 或 host")
		}
		base.Proxy = http.ProxyURL(u)
	}
	if opts.InsecureSkipVerify {
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // 由配置显式开启
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	tr := &Transport{
		Base:      base,
		UserAgent: opts.UserAgent,
		RetryMax:  defaultRetryMax,
		Backoff:   defaultBackoff,
	}
	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}
