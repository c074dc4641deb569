package cache

import (
	"time"

	lru "github.com/apibillme/cache"
)

// MemoryStore 是进程内 LRU（容量按条目数），通常作为 Tiered 的 Front。
type MemoryStore struct {
	c   lru.Cache
	now func() time.Time
}

type memEntry struct {
	data    []byte
	expires time.Time
}

// NewMemoryStore 创建容量为 size 的内存缓存；maxTTL 是任何条目的最长存活时间。
func NewMemoryStore(size int, maxTTL time.Duration) *MemoryStore {
	if size < 1 {
		size = 1
	}
	if maxTTL <= 0 {
		maxTTL = time.Hour
	}
	return &MemoryStore{c: lru.New(size, lru.WithTTL(maxTTL)), now: time.Now}
}

func (s *MemoryStore) Get(key string) ([]byte, bool, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	e, ok := v.(memEntry)
	if !ok || !s.now().Before(e.expires) {
		return nil, false, nil
	}
	return e.data, true, nil
}

func (s *MemoryStore) Put(key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b := make([]byte, len(data))
	copy(b, data)
	s.c.Set(key, memEntry{data: b, expires: s.now().Add(ttl)})
	return nil
}
