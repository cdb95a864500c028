package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Event struct {
	ID           uuid.UUID
	UserID       string
	Action       string
	ResourceID   string
	ResourceType string
	Metadata     map[string]interface{}
	Timestamp    time.Time
}

// Logger records mutation events both to the structured log and, when a
// pool is configured, to the audit_events table.
type Logger struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewLogger(pool *pgxpool.Pool, logger *zap.Logger) *Logger {
	return &Logger{
		pool:   pool,
		logger: logger,
	}
}

func (al *Logger) Log(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	al.logger.Info("audit event",
		zap.String("event_id", event.ID.String()),
		zap.String("user_id", event.UserID),
		zap.String("action", event.Action),
		zap.String("resource_id", event.ResourceID),
		zap.String("resource_type", event.ResourceType),
	)

	if al.pool == nil {
		return nil
	}

	var metadata []byte
	if event.Metadata != nil {
		metadata, _ = json.Marshal(event.Metadata)
	}

	query := `
		INSERT INTO audit_events (id, user_id, action, resource_id, resource_type, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := al.pool.Exec(ctx, query,
		event.ID,
		event.UserID,
		event.Action,
		event.ResourceID,
		event.ResourceType,
		metadata,
		event.Timestamp,
	)
	return err
}
