package cache

import (
	"context"
	"time"
)

// AsidePattern is a read-through cache used for cheap, frequently repeated
// lookups such as workspace membership checks.
type AsidePattern struct {
	cache   *Cache
	metrics *Metrics
}

func NewAsidePattern(cache *Cache, metrics *Metrics) *AsidePattern {
	return &AsidePattern{cache: cache, metrics: metrics}
}

func (a *AsidePattern) GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) (interface{}, error) {
	var result interface{}
	err := a.cache.Get(ctx, key, &result)
	if err == nil {
		if a.metrics != nil {
			a.metrics.RecordHit()
		}
		return result, nil
	}

	if err != ErrCacheMiss {
		return nil, err
	}
	if a.metrics != nil {
		a.metrics.RecordMiss()
	}

	result, err = loader()
	if err != nil {
		return nil, err
	}

	_ = a.cache.Set(ctx, key, result, ttl)
	return result, nil
}

func (a *AsidePattern) Invalidate(ctx context.Context, keys ...string) error {
	return a.cache.Delete(ctx, keys...)
}
