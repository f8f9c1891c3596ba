package blob

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedStore 帶 TTL 讀緩存的 Store，寫入時失效對應條目
type CachedStore struct {
	next  Store
	cache *cache.Cache
}

func NewCachedStore(next Store, ttl time.Duration) *CachedStore {
	return &CachedStore{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (s *CachedStore) Read(ctx context.Context, path string) ([]byte, error) {
	if v, ok := s.cache.Get(path); ok {
		return clone(v.([]byte)), nil
	}
	data, err := s.next.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(path, clone(data))
	return data, nil
}

func (s *CachedStore) Write(ctx context.Context, path string, data []byte) error {
	s.cache.Delete(path)
	if err := s.next.Write(ctx, path, data); err != nil {
		return err
	}
	s.cache.SetDefault(path, clone(data))
	return nil
}

// Flush 清空緩存
func (s *CachedStore) Flush() {
	s.cache.Flush()
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
