package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemoryCache is the in-process Cache used when Redis is absent or down.
type MemoryCache struct {
	values     sync.Map
	rateLimits sync.Map
	mu         sync.Mutex
	now        func() time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{now: time.Now}
}

func (r *MemoryCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	val, ok := r.values.Load(key)
	if !ok {
		return false, nil
	}
	entry := val.(memoryEntry)
	if !entry.expiresAt.IsZero() && r.now().After(entry.expiresAt) {
		r.values.Delete(key)
		return false, nil
	}
	if err := json.Unmarshal(entry.data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached %s: %w", key, err)
	}
	return true, nil
}

func (r *MemoryCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	entry := memoryEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = r.now().Add(ttl)
	}
	r.values.Store(key, entry)
	return nil
}

func (r *MemoryCache) DeletePrefix(ctx context.Context, prefix string) error {
	r.values.Range(func(k, _ interface{}) bool {
		if strings.HasPrefix(k.(string), prefix) {
			r.values.Delete(k)
		}
		return true
	})
	if strings.HasPrefix(prefix, "rl:") {
		counter := strings.TrimPrefix(prefix, "rl:")
		r.rateLimits.Range(func(k, _ interface{}) bool {
			if strings.HasPrefix(k.(string), counter) {
				r.rateLimits.Delete(k)
			}
			return true
		})
	}
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	val, ok := r.rateLimits.Load(key)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(key, entry)
	return entry.count <= limit, nil
}

func (r *MemoryCache) Ping(ctx context.Context) error {
	return nil
}
