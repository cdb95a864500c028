package feed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/huddle-chat/huddle/internal/reactions"
)

// fakeAPI lets each test script the remote side.
type fakeAPI struct {
	listMessages   func(ctx context.Context, channelID, cursor string, limit int) (*Page, error)
	createMessage  func(ctx context.Context, input CreateMessageInput) (*Message, error)
	updateMessage  func(ctx context.Context, messageID, content string) (*UpdateResult, error)
	listThread     func(ctx context.Context, messageID string) (*Thread, error)
	toggleReaction func(ctx context.Context, messageID, emoji string) (*ToggleResult, error)
}

func (f *fakeAPI) ListMessages(ctx context.Context, channelID, cursor string, limit int) (*Page, error) {
	return f.listMessages(ctx, channelID, cursor, limit)
}

func (f *fakeAPI) CreateMessage(ctx context.Context, input CreateMessageInput) (*Message, error) {
	return f.createMessage(ctx, input)
}

func (f *fakeAPI) UpdateMessage(ctx context.Context, messageID, content string) (*UpdateResult, error) {
	return f.updateMessage(ctx, messageID, content)
}

func (f *fakeAPI) ListThread(ctx context.Context, messageID string) (*Thread, error) {
	return f.listThread(ctx, messageID)
}

func (f *fakeAPI) ToggleReaction(ctx context.Context, messageID, emoji string) (*ToggleResult, error) {
	return f.toggleReaction(ctx, messageID, emoji)
}

var testEpoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// item builds a top-level list item whose id doubles as its age: higher
// ids are newer.
func item(id int64) ListItem {
	return ListItem{
		Message: Message{
			ID:         strconv.FormatInt(id, 10),
			ChannelID:  "chan-1",
			Content:    fmt.Sprintf("message %d", id),
			AuthorID:   "user-other",
			AuthorName: "Other User",
			CreatedAt:  testEpoch.Add(time.Duration(id) * time.Second),
			UpdatedAt:  testEpoch.Add(time.Duration(id) * time.Second),
		},
		Reactions: []reactions.Grouped{},
	}
}

// pageOf builds a server page from newest to oldest ids, with the cursor
// set to the oldest id when full is true.
func pageOf(full bool, ids ...int64) Page {
	p := Page{Items: make([]ListItem, len(ids))}
	for i, id := range ids {
		p.Items[i] = item(id)
	}
	if full && len(ids) > 0 {
		p.NextCursor = strconv.FormatInt(ids[len(ids)-1], 10)
	}
	return p
}

// channelServer serves pages of descending ids from newest down to 1,
// mimicking the real cursor contract.
func channelServer(newest int64) func(ctx context.Context, channelID, cursor string, limit int) (*Page, error) {
	return func(ctx context.Context, channelID, cursor string, limit int) (*Page, error) {
		start := newest
		if cursor != "" {
			c, err := strconv.ParseInt(cursor, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("bad cursor %q", cursor)
			}
			start = c - 1
		}

		var page Page
		for id := start; id >= 1 && len(page.Items) < limit; id-- {
			page.Items = append(page.Items, item(id))
		}
		if len(page.Items) == limit {
			page.NextCursor = page.Items[len(page.Items)-1].ID
		}
		return &page, nil
	}
}

func testViewer() Viewer {
	return Viewer{
		ID:        "user-1",
		Name:      "Test User",
		Email:     "test@example.com",
		AvatarURL: "https://example.com/avatar.png",
	}
}
