package messages

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/huddle-chat/huddle/internal/common/errors"
	"github.com/huddle-chat/huddle/internal/infra"
	"github.com/huddle-chat/huddle/internal/reactions"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	DefaultPageSize = 30
	MaxPageSize     = 100
)

type Repository struct {
	pool      *pgxpool.Pool
	snowflake *infra.SnowflakeGenerator
}

func NewRepository(pool *pgxpool.Pool, snowflake *infra.SnowflakeGenerator) *Repository {
	return &Repository{
		pool:      pool,
		snowflake: snowflake,
	}
}

func (r *Repository) Create(ctx context.Context, msg *Message) error {
	if msg.ID == 0 {
		msg.ID = r.snowflake.Generate()
	}

	msg.CreatedAt = r.snowflake.ExtractTimestamp(msg.ID)
	msg.UpdatedAt = msg.CreatedAt

	query := `
		INSERT INTO messages (id, channel_id, thread_id, content, image_url,
			author_id, author_name, author_email, author_avatar, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		msg.ID,
		msg.ChannelID,
		msg.ThreadID,
		msg.Content,
		msg.ImageURL,
		msg.AuthorID,
		msg.AuthorName,
		msg.AuthorEmail,
		msg.AuthorAvatar,
		msg.CreatedAt,
		msg.UpdatedAt,
	)

	return err
}

// GetScoped fetches a message only if its channel belongs to workspaceID.
func (r *Repository) GetScoped(ctx context.Context, id int64, workspaceID string) (*Message, error) {
	query := `
		SELECT m.id, m.channel_id, m.thread_id, m.content, m.image_url,
			m.author_id, m.author_name, m.author_email, m.author_avatar,
			m.created_at, m.updated_at
		FROM messages m
		JOIN channels c ON c.id = m.channel_id
		WHERE m.id = $1 AND c.workspace_id = $2
	`

	msg := &Message{}
	err := r.pool.QueryRow(ctx, query, id, workspaceID).Scan(
		&msg.ID,
		&msg.ChannelID,
		&msg.ThreadID,
		&msg.Content,
		&msg.ImageURL,
		&msg.AuthorID,
		&msg.AuthorName,
		&msg.AuthorEmail,
		&msg.AuthorAvatar,
		&msg.CreatedAt,
		&msg.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("message not found")
	}
	if err != nil {
		return nil, err
	}

	return msg, nil
}

// ListTopLevel returns one newest-first page of a channel's top-level
// messages. cursorID, when non-nil, is exclusive: the page starts strictly
// after (older than) that id. Snowflake ids order identically to
// (created_at, id), so a single id comparison implements the compound
// cursor.
func (r *Repository) ListTopLevel(ctx context.Context, channelID uuid.UUID, cursorID *int64, limit int) ([]*Message, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	var query string
	var args []interface{}

	if cursorID != nil {
		query = `
			SELECT id, channel_id, thread_id, content, image_url,
				author_id, author_name, author_email, author_avatar, created_at, updated_at
			FROM messages
			WHERE channel_id = $1 AND thread_id IS NULL AND id < $2
			ORDER BY id DESC
			LIMIT $3
		`
		args = []interface{}{channelID, *cursorID, limit}
	} else {
		query = `
			SELECT id, channel_id, thread_id, content, image_url,
				author_id, author_name, author_email, author_avatar, created_at, updated_at
			FROM messages
			WHERE channel_id = $1 AND thread_id IS NULL
			ORDER BY id DESC
			LIMIT $2
		`
		args = []interface{}{channelID, limit}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

// ListThread returns every reply to parentID in ascending order.
func (r *Repository) ListThread(ctx context.Context, parentID int64) ([]*Message, error) {
	query := `
		SELECT id, channel_id, thread_id, content, image_url,
			author_id, author_name, author_email, author_avatar, created_at, updated_at
		FROM messages
		WHERE thread_id = $1
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (r *Repository) UpdateContent(ctx context.Context, id int64, content string) (*Message, error) {
	query := `
		UPDATE messages
		SET content = $2, updated_at = $3
		WHERE id = $1
		RETURNING id, channel_id, thread_id, content, image_url,
			author_id, author_name, author_email, author_avatar, created_at, updated_at
	`

	msg := &Message{}
	err := r.pool.QueryRow(ctx, query, id, content, time.Now()).Scan(
		&msg.ID,
		&msg.ChannelID,
		&msg.ThreadID,
		&msg.Content,
		&msg.ImageURL,
		&msg.AuthorID,
		&msg.AuthorName,
		&msg.AuthorEmail,
		&msg.AuthorAvatar,
		&msg.CreatedAt,
		&msg.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("message not found")
	}
	if err != nil {
		return nil, err
	}

	return msg, nil
}

// ReplyCounts returns the reply count per parent id for the given ids.
func (r *Repository) ReplyCounts(ctx context.Context, ids []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	query := `
		SELECT thread_id, COUNT(*)
		FROM messages
		WHERE thread_id = ANY($1)
		GROUP BY thread_id
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var parentID int64
		var count int
		if err := rows.Scan(&parentID, &count); err != nil {
			return nil, err
		}
		counts[parentID] = count
	}

	return counts, rows.Err()
}

// ReactionRows returns the raw (emoji, user) rows per message id, ordered
// by insertion so grouped output is stable within one aggregation.
func (r *Repository) ReactionRows(ctx context.Context, ids []int64) (map[int64][]reactions.Row, error) {
	result := make(map[int64][]reactions.Row, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `
		SELECT message_id, emoji, user_id
		FROM message_reactions
		WHERE message_id = ANY($1)
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var messageID int64
		var row reactions.Row
		if err := rows.Scan(&messageID, &row.Emoji, &row.UserID); err != nil {
			return nil, err
		}
		result[messageID] = append(result[messageID], row)
	}

	return result, rows.Err()
}

// ToggleReaction inserts the (message, user, emoji) row, or deletes it if
// it already exists. Returns true when the toggle added the reaction.
func (r *Repository) ToggleReaction(ctx context.Context, messageID int64, userID, emoji string) (bool, error) {
	insert := `
		INSERT INTO message_reactions (id, message_id, user_id, emoji, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (message_id, user_id, emoji) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, insert, uuid.New(), messageID, userID, emoji)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	del := `
		DELETE FROM message_reactions
		WHERE message_id = $1 AND user_id = $2 AND emoji = $3
	`

	_, err = r.pool.Exec(ctx, del, messageID, userID, emoji)
	return false, err
}

func scanMessages(rows pgx.Rows) ([]*Message, error) {
	var messages []*Message
	for rows.Next() {
		msg := &Message{}
		if err := rows.Scan(
			&msg.ID,
			&msg.ChannelID,
			&msg.ThreadID,
			&msg.Content,
			&msg.ImageURL,
			&msg.AuthorID,
			&msg.AuthorName,
			&msg.AuthorEmail,
			&msg.AuthorAvatar,
			&msg.CreatedAt,
			&msg.UpdatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}
