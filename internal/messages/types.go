package messages

import (
	"time"

	"github.com/google/uuid"
	"github.com/huddle-chat/huddle/internal/infra"
	"github.com/huddle-chat/huddle/internal/reactions"
)

// Message is the persisted record. Author fields are a snapshot captured
// at send time, not a live join. Content is an opaque serialized rich-text
// document.
type Message struct {
	ID           int64
	ChannelID    uuid.UUID
	ThreadID     *int64
	Content      string
	ImageURL     *string
	AuthorID     string
	AuthorName   string
	AuthorEmail  string
	AuthorAvatar string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ListItem is a Message plus its derived fields, computed at query time.
type ListItem struct {
	Message
	RepliesCount int
	Reactions    []reactions.Grouped
}

func (m *Message) PublicID() string {
	return infra.FormatID(m.ID)
}

func (m *Message) ThreadPublicID() string {
	if m.ThreadID == nil {
		return ""
	}
	return infra.FormatID(*m.ThreadID)
}
