package db

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// QueryRecorder receives the duration of every traced query, labeled by
// its leading SQL keyword.
type QueryRecorder interface {
	RecordDBQuery(queryType string, duration time.Duration)
}

type queryInfo struct {
	SQL  string
	Args []interface{}
}

type contextKeyType string

const (
	queryInfoKey  contextKeyType = "query_info"
	queryStartKey contextKeyType = "query_start"
)

type SlowQueryLogger struct {
	logger    *zap.Logger
	threshold time.Duration
	recorder  QueryRecorder
}

func NewSlowQueryLogger(logger *zap.Logger, threshold time.Duration, recorder QueryRecorder) *SlowQueryLogger {
	return &SlowQueryLogger{
		logger:    logger,
		threshold: threshold,
		recorder:  recorder,
	}
}

func (s *SlowQueryLogger) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	info := queryInfo{
		SQL:  data.SQL,
		Args: data.Args,
	}
	ctx = context.WithValue(ctx, queryInfoKey, info)
	ctx = context.WithValue(ctx, queryStartKey, time.Now())
	return ctx
}

func (s *SlowQueryLogger) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey).(time.Time)
	if !ok {
		return
	}

	duration := time.Since(start)
	info, haveInfo := ctx.Value(queryInfoKey).(queryInfo)

	if s.recorder != nil {
		s.recorder.RecordDBQuery(queryKeyword(info.SQL), duration)
	}

	if duration > s.threshold {
		if !haveInfo {
			s.logger.Warn("slow query detected",
				zap.Duration("duration", duration),
			)
			return
		}

		s.logger.Warn("slow query detected",
			zap.Duration("duration", duration),
			zap.String("sql", info.SQL),
			zap.Any("args", info.Args),
		)
	}
}

func queryKeyword(sql string) string {
	fields := strings.Fields(strings.TrimSpace(sql))
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToLower(fields[0])
}
