// Package reqseq issues monotonically increasing request tokens per key so that
// a response can be dropped when a newer request for the same key was issued.
package reqseq

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// ErrStale is returned by Commit when the token has been superseded.
var ErrStale = errors.New("reqseq: response superseded by a newer request")

const stripes = 64

// Token identifies one issued request.
type Token struct {
	Key string
	N   uint64
}

// counters holds the latest issued number per key.
type counters interface {
	incr(ctx context.Context, key string) (uint64, error)
	get(ctx context.Context, key string) (uint64, bool, error)
}

type Sequencer struct {
	counters counters
	locks    [stripes]sync.Mutex
}

// New creates a sequencer for a single process. Counters expire after ttl of
// inactivity.
func New(ttl time.Duration) *Sequencer {
	return &Sequencer{counters: &memoryCounters{c: cache.New(ttl, 2*ttl)}}
}

// NewRedis keeps the counters in Redis so that every instance sharing the
// session store sees the same latest token.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Sequencer {
	return &Sequencer{counters: &redisCounters{client: client, prefix: prefix, ttl: ttl}}
}

// Key builds the counter key for one field of one browser session.
func Key(sessionID, field string) string {
	return sessionID + ":" + field
}

// Issue returns a token newer than every token previously issued for key.
func (s *Sequencer) Issue(ctx context.Context, key string) (Token, error) {
	mu := s.lock(key)
	mu.Lock()
	defer mu.Unlock()

	n, err := s.counters.incr(ctx, key)
	if err != nil {
		return Token{}, fmt.Errorf("reqseq: failed to issue token for %s: %w", key, err)
	}
	return Token{Key: key, N: n}, nil
}

// Latest reports whether t is the most recently issued token for its key.
func (s *Sequencer) Latest(ctx context.Context, t Token) (bool, error) {
	n, ok, err := s.counters.get(ctx, t.Key)
	if err != nil {
		return false, fmt.Errorf("reqseq: failed to read token for %s: %w", t.Key, err)
	}
	return ok && n == t.N, nil
}

// Commit runs apply only if t is still the latest token, holding the key's lock
// so that no newer token can be issued in between by this process.
func (s *Sequencer) Commit(ctx context.Context, t Token, apply func() error) error {
	mu := s.lock(t.Key)
	mu.Lock()
	defer mu.Unlock()

	latest, err := s.Latest(ctx, t)
	if err != nil {
		return err
	}
	if !latest {
		return ErrStale
	}
	return apply()
}

func (s *Sequencer) lock(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &s.locks[h.Sum32()%stripes]
}

// memoryCounters relies on the caller holding the key's stripe lock.
type memoryCounters struct {
	c *cache.Cache
}

func (m *memoryCounters) incr(_ context.Context, key string) (uint64, error) {
	_ = m.c.Add(key, uint64(0), cache.DefaultExpiration)
	n, err := m.c.IncrementUint64(key, 1)
	if err != nil {
		// expired between Add and IncrementUint64
		n = 1
	}
	// refresh expiry
	m.c.Set(key, n, cache.DefaultExpiration)
	return n, nil
}

func (m *memoryCounters) get(_ context.Context, key string) (uint64, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return 0, false, nil
	}
	n, ok := v.(uint64)
	return n, ok, nil
}

type redisCounters struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func (r *redisCounters) incr(ctx context.Context, key string) (uint64, error) {
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, r.prefix+key)
		pipe.Expire(ctx, r.prefix+key, r.ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return uint64(incr.Val()), nil
}

func (r *redisCounters) get(ctx context.Context, key string) (uint64, bool, error) {
	n, err := r.client.Get(ctx, r.prefix+key).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}
