package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Warmer preloads membership entries so the first page fetch after startup
// does not pay the cold-lookup cost.
type Warmer struct {
	cache  *Cache
	logger *zap.Logger
}

func NewWarmer(cache *Cache, logger *zap.Logger) *Warmer {
	return &Warmer{
		cache:  cache,
		logger: logger,
	}
}

func (w *Warmer) WarmMemberships(ctx context.Context, keys []string, loader func(string) (interface{}, error)) error {
	for _, key := range keys {
		data, err := loader(key)
		if err != nil {
			w.logger.Warn("failed to load membership", zap.String("key", key), zap.Error(err))
			continue
		}

		if err := w.cache.Set(ctx, key, data, 30*time.Second); err != nil {
			w.logger.Warn("failed to cache membership", zap.String("key", key), zap.Error(err))
		}
	}

	return nil
}
