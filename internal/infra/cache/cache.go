// Package cache 缓存博物馆 API 的 HTTP 响应，减少重复查询对来源的压力。
package cache

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Store 是按 key 读写字节数据的缓存后端。
//
// 约束：
// - Get 未命中（含已过期）返回 ok=false，err=nil
// - Put 的 ttl<=0 表示不缓存（直接返回 nil）
// - 实现必须并发安全
type Store interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, data []byte, ttl time.Duration) error
}

// ErrInvalidKey 表示 key 不是 Transport 生成的十六进制摘要。
var ErrInvalidKey = errors.New("cache: 非法 key")

// key 只允许小写十六进制：它会被直接用作文件名。
var keyRE = regexp.MustCompile(`^[0-9a-f]{8,128}$`)

func checkKey(key string) error {
	if !keyRE.MatchString(key) {
		return fmt.Errorf("%w：%q", ErrInvalidKey, key)
	}
	return nil
}

// Tiered 先查 Front（通常是内存），未命中再查 Back，并把 Back 的命中回填到 Front。
// 写入同时写两层；Front 的写入失败不影响结果。
type Tiered struct {
	Front Store
	Back  Store
	// FrontTTL 是回填 Front 时使用的有效期。
	FrontTTL time.Duration
}

func (t Tiered) Get(key string) ([]byte, bool, error) {
	if b, ok, err := t.Front.Get(key); err == nil && ok {
		return b, true, nil
	}
	b, ok, err := t.Back.Get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = t.Front.Put(key, b, t.FrontTTL)
	return b, true, nil
}

func (t Tiered) Put(key string, data []byte, ttl time.Duration) error {
	if err := t.Back.Put(key, data, ttl); err != nil {
		return err
	}
	frontTTL := t.FrontTTL
	if frontTTL <= 0 || frontTTL > ttl {
		frontTTL = ttl
	}
	_ = t.Front.Put(key, data, frontTTL)
	return nil
}
