package feed

import (
	"time"

	"github.com/huddle-chat/huddle/internal/reactions"
)

// Message mirrors the server's message JSON. IDs are opaque strings:
// server ids are numeric, optimistic ids carry a reserved prefix.
type Message struct {
	ID           string    `json:"id"`
	ChannelID    string    `json:"channelId"`
	ThreadID     string    `json:"threadId,omitempty"`
	Content      string    `json:"content"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	AuthorID     string    `json:"authorId"`
	AuthorName   string    `json:"authorName"`
	AuthorEmail  string    `json:"authorEmail"`
	AuthorAvatar string    `json:"authorAvatar"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type ListItem struct {
	Message
	RepliesCount int                 `json:"repliesCount"`
	Reactions    []reactions.Grouped `json:"reactions"`
}

// Page is one server window of top-level messages, newest first.
// NextCursor, when present, is the id of the oldest item and is the
// exclusive cursor for the next older fetch.
type Page struct {
	Items      []ListItem `json:"items"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

type Thread struct {
	Parent   ListItem   `json:"parent"`
	Messages []ListItem `json:"messages"`
}

type CreateMessageInput struct {
	ChannelID string `json:"channelId"`
	Content   string `json:"content"`
	ImageURL  string `json:"imageUrl,omitempty"`
	ThreadID  string `json:"threadId,omitempty"`
}

type UpdateResult struct {
	Message Message `json:"message"`
	CanEdit bool    `json:"canEdit"`
}

type ToggleResult struct {
	MessageID string              `json:"messageId"`
	Reactions []reactions.Grouped `json:"reactions"`
}

// Viewer is the identity used to populate optimistic author fields and
// to compute reactedByMe locally.
type Viewer struct {
	ID        string
	Name      string
	Email     string
	AvatarURL string
}
