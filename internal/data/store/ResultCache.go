package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/akolanti/TenthLine/internal/config"
	"github.com/akolanti/TenthLine/internal/data/redisStore"
	"github.com/akolanti/TenthLine/internal/domain/docModel"
	"github.com/akolanti/TenthLine/pkg/logger_i"
)

// RedisResultCache stores results as JSON with a TTL.
type RedisResultCache struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

// GetRedisResultCache returns false when redis is unreachable.
func GetRedisResultCache(ctx context.Context) (*RedisResultCache, bool) {
	s := redisStore.GetRedisStore(ctx, config.RedisResultCache)
	if s == nil {
		return nil, false
	}
	return NewRedisResultCache(s), true
}

func NewRedisResultCache(s *redisStore.Store) *RedisResultCache {
	return &RedisResultCache{store: s, logger: logger_i.NewLogger("ResultCache")}
}

func (c *RedisResultCache) Get(ctx context.Context, key string) (docModel.ProcessingResult, bool, error) {
	var result docModel.ProcessingResult
	val, err := c.store.GetBytes(ctx, key)
	if c.store.IsNil(err) {
		return result, false, nil
	} else if err != nil {
		return result, false, err
	}
	if err = json.Unmarshal(val, &result); err != nil {
		return result, false, err
	}
	c.logger.FromContext(ctx).Debug("cache hit", "key", key)
	return result, true, nil
}

func (c *RedisResultCache) Put(ctx context.Context, key string, result docModel.ProcessingResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if err = c.store.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	c.logger.FromContext(ctx).Debug("cached result", "key", key, "ttl", ttl, "bytes", len(data))
	return nil
}

func (c *RedisResultCache) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

type memoryEntry struct {
	result  docModel.ProcessingResult
	expires time.Time
}

// InMemoryResultCache is the fallback when redis is down. Entries expire lazily.
type InMemoryResultCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func InitInMemoryResultCache() *InMemoryResultCache {
	return &InMemoryResultCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *InMemoryResultCache) Get(ctx context.Context, key string) (docModel.ProcessingResult, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return docModel.ProcessingResult{}, false, nil
	}
	if !entry.expires.IsZero() && c.now().After(entry.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return docModel.ProcessingResult{}, false, nil
	}
	return entry.result, true, nil
}

func (c *InMemoryResultCache) Put(ctx context.Context, key string, result docModel.ProcessingResult, ttl time.Duration) error {
	entry := memoryEntry{result: result}
	if ttl > 0 {
		entry.expires = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

// NoopResultCache never hits and never stores.
type NoopResultCache struct{}

func (NoopResultCache) Get(ctx context.Context, key string) (docModel.ProcessingResult, bool, error) {
	return docModel.ProcessingResult{}, false, nil
}

func (NoopResultCache) Put(ctx context.Context, key string, result docModel.ProcessingResult, ttl time.Duration) error {
	return nil
}
