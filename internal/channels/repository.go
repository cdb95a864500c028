package channels

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/huddle-chat/huddle/internal/common/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Channel struct {
	ID          uuid.UUID `json:"id"`
	WorkspaceID string    `json:"workspaceId"`
	Name        string    `json:"name"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, ch *Channel) error {
	if ch.ID == uuid.Nil {
		ch.ID = uuid.New()
	}
	ch.CreatedAt = time.Now()

	query := `
		INSERT INTO channels (id, workspace_id, name, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		ch.ID,
		ch.WorkspaceID,
		ch.Name,
		ch.CreatedBy,
		ch.CreatedAt,
	)

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) && pgErr.Code == "23505" {
		return errors.Conflict("channel name already taken")
	}
	return err
}

// GetScoped fetches a channel only if it belongs to the given workspace.
func (r *Repository) GetScoped(ctx context.Context, id uuid.UUID, workspaceID string) (*Channel, error) {
	query := `
		SELECT id, workspace_id, name, created_by, created_at
		FROM channels
		WHERE id = $1 AND workspace_id = $2
	`

	ch := &Channel{}
	err := r.pool.QueryRow(ctx, query, id, workspaceID).Scan(
		&ch.ID,
		&ch.WorkspaceID,
		&ch.Name,
		&ch.CreatedBy,
		&ch.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("channel not found")
	}
	if err != nil {
		return nil, err
	}

	return ch, nil
}

func (r *Repository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*Channel, error) {
	query := `
		SELECT id, workspace_id, name, created_by, created_at
		FROM channels
		WHERE workspace_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []*Channel
	for rows.Next() {
		ch := &Channel{}
		if err := rows.Scan(
			&ch.ID,
			&ch.WorkspaceID,
			&ch.Name,
			&ch.CreatedBy,
			&ch.CreatedAt,
		); err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}

	return channels, rows.Err()
}
