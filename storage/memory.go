package storage

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Memory keeps session values in process. It is the default medium for the
// web front end and for tests.
type Memory struct {
	cache *cache.Cache
}

// NewMemory returns a Memory store whose values never expire.
func NewMemory() *Memory {
	return NewMemoryWithTTL(cache.NoExpiration, 0)
}

// NewMemoryWithTTL returns a Memory store where every value expires after
// ttl. A cleanup interval of zero disables the janitor.
func NewMemoryWithTTL(ttl, cleanup time.Duration) *Memory {
	return &Memory{cache: cache.New(ttl, cleanup)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	return s, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.cache.Set(key, value, cache.DefaultExpiration)
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		m.cache.Delete(key)
	}
	return nil
}

// Len reports how many live values the store holds.
func (m *Memory) Len() int {
	return m.cache.ItemCount()
}
