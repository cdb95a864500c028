package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PoolMonitor periodically reports connection pool pressure. The feed
// endpoints hold connections only briefly, so a saturated pool usually
// means a slow query or a leaked transaction.
type PoolMonitor struct {
	pool     *pgxpool.Pool
	logger   *zap.Logger
	interval time.Duration
	stop     chan struct{}
}

func NewPoolMonitor(pool *pgxpool.Pool, logger *zap.Logger, interval time.Duration) *PoolMonitor {
	return &PoolMonitor{
		pool:     pool,
		logger:   logger,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (m *PoolMonitor) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.logStats()
			case <-m.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *PoolMonitor) logStats() {
	stats := m.pool.Stat()

	fields := []zap.Field{
		zap.Int32("acquired", stats.AcquiredConns()),
		zap.Int32("idle", stats.IdleConns()),
		zap.Int32("constructing", stats.ConstructingConns()),
		zap.Int32("max", stats.MaxConns()),
		zap.Int64("acquires", stats.AcquireCount()),
		zap.Int64("empty_acquires", stats.EmptyAcquireCount()),
		zap.Int64("canceled_acquires", stats.CanceledAcquireCount()),
		zap.Duration("acquire_wait", stats.AcquireDuration()),
	}

	if stats.AcquiredConns() >= stats.MaxConns() {
		m.logger.Warn("connection pool saturated", fields...)
		return
	}
	m.logger.Info("connection pool status", fields...)
}

func (m *PoolMonitor) Stop() {
	close(m.stop)
}
