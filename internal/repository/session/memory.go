package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/medbook-web/internal/repository"
)

// MemoryStore keeps values in process memory. Values are stored encoded so
// callers never share mutable state through the cache.
type MemoryStore[T any] struct {
	cache *cache.Cache
}

func NewMemoryStore[T any](defaultTTL, cleanup time.Duration) *MemoryStore[T] {
	return &MemoryStore[T]{cache: cache.New(defaultTTL, cleanup)}
}

var _ repository.Store[struct{}] = (*MemoryStore[struct{}])(nil)

func (s *MemoryStore[T]) Get(_ context.Context, key string) (T, bool, error) {
	var zero T
	raw, ok := s.cache.Get(key)
	if !ok {
		return zero, false, nil
	}
	var v T
	if err := json.Unmarshal(raw.([]byte), &v); err != nil {
		return zero, false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return v, true, nil
}

func (s *MemoryStore[T]) Set(_ context.Context, key string, value T, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	s.cache.Set(key, raw, ttl)
	return nil
}

func (s *MemoryStore[T]) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

func (s *MemoryStore[T]) Ping(context.Context) error {
	return nil
}
