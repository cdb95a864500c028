package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadViewLoad(t *testing.T) {
	parent := item(10)
	parent.RepliesCount = 2
	reply1 := item(11)
	reply1.ThreadID = "10"
	reply2 := item(12)
	reply2.ThreadID = "10"

	api := &fakeAPI{listThread: func(ctx context.Context, messageID string) (*Thread, error) {
		require.Equal(t, "10", messageID)
		return &Thread{Parent: parent, Messages: []ListItem{reply1, reply2}}, nil
	}}

	store := NewStore()
	engine := newTestEngine(api, store)
	view := NewThreadView(api, store, engine, "10")

	require.False(t, view.Loaded())
	require.NoError(t, view.Load(context.Background()))
	require.True(t, view.Loaded())

	got, ok := view.Parent()
	require.True(t, ok)
	assert.Equal(t, parent, got)

	replies := view.Replies()
	require.Len(t, replies, 2)
	assert.Equal(t, "11", replies[0].ID)
	assert.Equal(t, "12", replies[1].ID)
}

func TestThreadViewLoadErrorPropagates(t *testing.T) {
	fail := errors.New("gone")
	api := &fakeAPI{listThread: func(ctx context.Context, messageID string) (*Thread, error) {
		return nil, fail
	}}

	store := NewStore()
	view := NewThreadView(api, store, newTestEngine(api, store), "10")

	require.ErrorIs(t, view.Load(context.Background()), fail)
	assert.False(t, view.Loaded())

	// The fetch slot is released, so a retry can succeed.
	api.listThread = func(ctx context.Context, messageID string) (*Thread, error) {
		return &Thread{Parent: item(10)}, nil
	}
	require.NoError(t, view.Load(context.Background()))
	assert.True(t, view.Loaded())
}

func TestThreadViewReplyGoesThroughEngine(t *testing.T) {
	store := NewStore()
	store.Set(ThreadKey("10"), &ThreadFeed{Parent: item(10)})

	api := &fakeAPI{createMessage: func(ctx context.Context, input CreateMessageInput) (*Message, error) {
		require.Equal(t, "10", input.ThreadID)
		require.Equal(t, "chan-1", input.ChannelID)
		confirmed := item(11)
		confirmed.ThreadID = "10"
		confirmed.Content = input.Content
		return &confirmed.Message, nil
	}}
	engine := newTestEngine(api, store)
	view := NewThreadView(api, store, engine, "10")

	msg, err := view.Reply(context.Background(), "chan-1", "a reply", "")
	require.NoError(t, err)
	assert.Equal(t, "11", msg.ID)

	replies := view.Replies()
	require.Len(t, replies, 1)
	assert.Equal(t, "11", replies[0].ID)
}
