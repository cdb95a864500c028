package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/huddle-chat/huddle/internal/infra/cache"
	"golang.org/x/time/rate"
)

// Scope names map to limit buckets; the scope is the prefix of the key
// ("write:user-123" uses the write bucket).
const (
	ScopeRead    = "read"
	ScopeWrite   = "write"
	ScopeAI      = "ai"
	ScopeDefault = "default"
)

type LimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// Limiter enforces per-viewer limits against Redis counters, falling back
// to local token buckets when Redis is unavailable.
type Limiter struct {
	cache       *cache.Cache
	enabled     bool
	limits      map[string]LimitConfig
	localCache  map[string]*rate.Limiter
	mu          sync.RWMutex
	cleanupDone chan struct{}
}

func NewLimiter(cache *cache.Cache, requestsPerMinute, burst int, enabled bool) *Limiter {
	l := &Limiter{
		cache:   cache,
		enabled: enabled,
		limits: map[string]LimitConfig{
			ScopeDefault: {
				RequestsPerMinute: requestsPerMinute,
				Burst:             burst,
			},
			ScopeRead: {
				RequestsPerMinute: 240,
				Burst:             40,
			},
			ScopeWrite: {
				RequestsPerMinute: 120,
				Burst:             20,
			},
			ScopeAI: {
				RequestsPerMinute: 10,
				Burst:             2,
			},
		},
		localCache:  make(map[string]*rate.Limiter),
		cleanupDone: make(chan struct{}),
	}

	if enabled {
		go l.cleanup()
	}

	return l
}

func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if !l.enabled {
		return true, nil
	}

	scope := ScopeDefault
	if i := strings.IndexByte(key, ':'); i > 0 {
		if _, ok := l.limits[key[:i]]; ok {
			scope = key[:i]
		}
	}

	config := l.limits[scope]

	if l.cache != nil {
		return l.allowRedis(ctx, key, config)
	}

	return l.allowLocal(key, config), nil
}

func (l *Limiter) allowLocal(key string, config LimitConfig) bool {
	l.mu.Lock()
	limiter, exists := l.localCache[key]
	if !exists {
		limit := rate.Limit(float64(config.RequestsPerMinute) / 60.0)
		limiter = rate.NewLimiter(limit, config.Burst)
		l.localCache[key] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}

func (l *Limiter) allowRedis(ctx context.Context, key string, config LimitConfig) (bool, error) {
	cacheKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := l.cache.Incr(ctx, cacheKey)
	if err != nil {
		return l.allowLocal(key, config), nil
	}

	if count == 1 {
		_ = l.cache.Expire(ctx, cacheKey, time.Minute)
	}

	if count > int64(config.RequestsPerMinute) {
		return false, nil
	}

	return true, nil
}

func (l *Limiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	delete(l.localCache, key)
	l.mu.Unlock()

	if l.cache != nil {
		cacheKey := fmt.Sprintf("ratelimit:%s", key)
		return l.cache.Delete(ctx, cacheKey)
	}

	return nil
}

func (l *Limiter) ClearAll(ctx context.Context) error {
	l.mu.Lock()
	l.localCache = make(map[string]*rate.Limiter)
	l.mu.Unlock()

	if l.cache != nil {
		return l.cache.DeletePattern(ctx, "ratelimit:*")
	}

	return nil
}

func (l *Limiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			l.localCache = make(map[string]*rate.Limiter)
			l.mu.Unlock()
		case <-l.cleanupDone:
			return
		}
	}
}

func (l *Limiter) Close() {
	close(l.cleanupDone)
}
