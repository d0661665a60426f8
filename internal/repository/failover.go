package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"homeservices/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverCache prefers the primary cache and switches to the fallback on the first
// primary error, retrying the primary once per recoveryInterval.
type FailoverCache struct {
	primary   domain.Cache
	fallback  domain.Cache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
	now       func() time.Time
}

func NewFailoverCache(primary, fallback domain.Cache, logger *zerolog.Logger) *FailoverCache {
	return &FailoverCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// usePrimary reports whether the primary should be tried for this call.
func (r *FailoverCache) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.now().Sub(r.lastCheck) > recoveryInterval {
		r.lastCheck = r.now()
		return true
	}
	return false
}

func (r *FailoverCache) markResult(err error) {
	if err == nil {
		if r.isDown.Swap(false) {
			r.logger.Info().Msg("primary cache recovered")
		}
		return
	}
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("primary cache failed, falling back to memory")
	}
	r.mu.Lock()
	r.lastCheck = r.now()
	r.mu.Unlock()
}

func (r *FailoverCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if r.usePrimary() {
		found, err := r.primary.GetJSON(ctx, key, dest)
		r.markResult(err)
		if err == nil {
			return found, nil
		}
	}
	return r.fallback.GetJSON(ctx, key, dest)
}

func (r *FailoverCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.usePrimary() {
		err := r.primary.SetJSON(ctx, key, value, ttl)
		r.markResult(err)
		if err == nil {
			return nil
		}
	}
	return r.fallback.SetJSON(ctx, key, value, ttl)
}

// DeletePrefix always clears the fallback as well, so entries written during an
// outage do not survive the recovery.
func (r *FailoverCache) DeletePrefix(ctx context.Context, prefix string) error {
	if r.usePrimary() {
		r.markResult(r.primary.DeletePrefix(ctx, prefix))
	}
	return r.fallback.DeletePrefix(ctx, prefix)
}

func (r *FailoverCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		r.markResult(err)
		if err == nil {
			return allowed, nil
		}
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}

// Ping reports the primary's health without switching modes.
func (r *FailoverCache) Ping(ctx context.Context) error {
	return r.primary.Ping(ctx)
}
