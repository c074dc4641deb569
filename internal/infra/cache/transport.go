package cache

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httputil"
	"time"

	"go.uber.org/zap"
)

// HeaderCache 标记响应来自缓存（值为 "HIT"）。
const HeaderCache = "X-Artfinder-Cache"

// Transport 是缓存成功 GET 响应的 http.RoundTripper。
//
// - key：sha256(method + " " + URL)
// - 只缓存 200；其它状态与传输错误原样返回，不写缓存
// - 缓存读写失败只记录日志，不影响请求本身
type Transport struct {
	Base   http.RoundTripper
	Store  Store
	TTL    time.Duration
	Logger *zap.Logger
}

// Key 返回请求的缓存 key。
func Key(req *http.Request) string {
	sum := sha256.Sum256([]byte(req.Method + " " + req.URL.String()))
	return hex.EncodeToString(sum[:])
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.Store == nil || req.Method != http.MethodGet || req.Header.Get("Range") != "" {
		return base.RoundTrip(req)
	}

	log := t.logger()
	key := Key(req)
	if data, ok, err := t.Store.Get(key); err != nil {
		log.Warn("读取缓存失败", zap.String("url", req.URL.String()), zap.Error(err))
	} else if ok {
		resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(data)), req)
		if err == nil {
			log.Debug("缓存命中", zap.String("url", req.URL.String()))
			resp.Header.Set(HeaderCache, "HIT")
			return resp, nil
		}
		log.Warn("缓存条目无法解码，重新请求", zap.String("url", req.URL.String()), zap.Error(err))
	}

	resp, err := base.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		return resp, err
	}
	// DumpResponse 会读完 body 并替换为可重读的副本。
	dump, err := httputil.DumpResponse(resp, true)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}
	if err := t.Store.Put(key, dump, t.TTL); err != nil {
		log.Warn("写入缓存失败", zap.String("url", req.URL.String()), zap.Error(err))
	} else {
		log.Debug("缓存未命中，已写入", zap.String("url", req.URL.String()))
	}
	return resp, nil
}

func (t *Transport) logger() *zap.Logger {
	if t.Logger == nil {
		return zap.NewNop()
	}
	return t.Logger
}
