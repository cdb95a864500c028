package workspaces

import (
	"context"
	"time"

	"github.com/huddle-chat/huddle/internal/common/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Workspace struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

type Member struct {
	WorkspaceID string
	UserID      string
	UserName    string
	UserEmail   string
	UserAvatar  string
	JoinedAt    time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Upsert(ctx context.Context, ws *Workspace) error {
	query := `
		INSERT INTO workspaces (id, name, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
	`

	_, err := r.pool.Exec(ctx, query, ws.ID, ws.Name)
	return err
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Workspace, error) {
	query := `
		SELECT id, name, created_at
		FROM workspaces
		WHERE id = $1
	`

	ws := &Workspace{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&ws.ID, &ws.Name, &ws.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("workspace not found")
	}
	if err != nil {
		return nil, err
	}

	return ws, nil
}

func (r *Repository) UpsertMember(ctx context.Context, m *Member) error {
	query := `
		INSERT INTO workspace_members (workspace_id, user_id, user_name, user_email, user_avatar, joined_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (workspace_id, user_id) DO UPDATE
		SET user_name = EXCLUDED.user_name,
		    user_email = EXCLUDED.user_email,
		    user_avatar = EXCLUDED.user_avatar
	`

	_, err := r.pool.Exec(ctx, query, m.WorkspaceID, m.UserID, m.UserName, m.UserEmail, m.UserAvatar)
	return err
}

func (r *Repository) GetMember(ctx context.Context, workspaceID, userID string) (*Member, error) {
	query := `
		SELECT workspace_id, user_id, user_name, user_email, user_avatar, joined_at
		FROM workspace_members
		WHERE workspace_id = $1 AND user_id = $2
	`

	m := &Member{}
	err := r.pool.QueryRow(ctx, query, workspaceID, userID).Scan(
		&m.WorkspaceID,
		&m.UserID,
		&m.UserName,
		&m.UserEmail,
		&m.UserAvatar,
		&m.JoinedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("member not found")
	}
	if err != nil {
		return nil, err
	}

	return m, nil
}

// ListRecentMemberKeys returns membership cache keys for the most recently
// joined members, used to warm the cache at startup.
func (r *Repository) ListRecentMemberKeys(ctx context.Context, limit int) ([]string, error) {
	query := `
		SELECT workspace_id, user_id
		FROM workspace_members
		ORDER BY joined_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var workspaceID, userID string
		if err := rows.Scan(&workspaceID, &userID); err != nil {
			return nil, err
		}
		keys = append(keys, MembershipKey(workspaceID, userID))
	}

	return keys, rows.Err()
}

func (r *Repository) ListMembers(ctx context.Context, workspaceID string) ([]*Member, error) {
	query := `
		SELECT workspace_id, user_id, user_name, user_email, user_avatar, joined_at
		FROM workspace_members
		WHERE workspace_id = $1
		ORDER BY user_name ASC
	`

	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		m := &Member{}
		if err := rows.Scan(
			&m.WorkspaceID,
			&m.UserID,
			&m.UserName,
			&m.UserEmail,
			&m.UserAvatar,
			&m.JoinedAt,
		); err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	return members, rows.Err()
}
