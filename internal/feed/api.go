package feed

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// API is the remote surface the feed layer synchronizes against. The
// HTTP implementation is Client; tests substitute fakes.
type API interface {
	ListMessages(ctx context.Context, channelID, cursor string, limit int) (*Page, error)
	CreateMessage(ctx context.Context, input CreateMessageInput) (*Message, error)
	UpdateMessage(ctx context.Context, messageID, content string) (*UpdateResult, error)
	ListThread(ctx context.Context, messageID string) (*Thread, error)
	ToggleReaction(ctx context.Context, messageID, emoji string) (*ToggleResult, error)
}

// OptimisticPrefix reserves an id namespace disjoint from server-assigned
// ids, which are decimal snowflakes.
const OptimisticPrefix = "optimistic-"

func NewOptimisticID() string {
	return OptimisticPrefix + uuid.New().String()
}

func IsOptimisticID(id string) bool {
	return strings.HasPrefix(id, OptimisticPrefix)
}
