package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huddle-chat/huddle/internal/reactions"
)

func newTestEngine(api API, store *Store) *Engine {
	engine := NewEngine(api, store, testViewer())
	engine.now = func() time.Time { return testEpoch.Add(time.Hour) }
	return engine
}

func seedChannel(store *Store, ids ...int64) Key {
	key := ChannelKey("chan-1")
	store.Set(key, &ChannelFeed{Pages: []Page{pageOf(false, ids...)}})
	return key
}

func TestSendOptimisticThenConfirmed(t *testing.T) {
	store := NewStore()
	key := seedChannel(store, 3, 2, 1)

	var observedID string
	api := &fakeAPI{createMessage: func(ctx context.Context, input CreateMessageInput) (*Message, error) {
		// The optimistic item is already visible at the newest edge
		// while the remote call is in flight.
		feed, ok := store.Channel(key)
		require.True(t, ok)
		newest := feed.Pages[0].Items[0]
		assert.True(t, IsOptimisticID(newest.ID))
		assert.Equal(t, input.Content, newest.Content)
		assert.Equal(t, "user-1", newest.AuthorID)
		observedID = newest.ID

		confirmed := item(4)
		confirmed.Content = input.Content
		confirmed.AuthorID = "user-1"
		return &confirmed.Message, nil
	}}

	engine := newTestEngine(api, store)
	msg, err := engine.Send(context.Background(), CreateMessageInput{
		ChannelID: "chan-1",
		Content:   "hello there",
	})
	require.NoError(t, err)
	require.Equal(t, "4", msg.ID)

	feed, ok := store.Channel(key)
	require.True(t, ok)
	items := feed.Pages[0].Items
	require.Len(t, items, 4)
	assert.Equal(t, "4", items[0].ID, "confirmed record must replace the optimistic one in place")

	seen := 0
	for _, it := range items {
		assert.False(t, IsOptimisticID(it.ID))
		if it.ID == "4" {
			seen++
		}
	}
	assert.Equal(t, 1, seen, "exactly one instance, no duplicate")
	assert.NotEmpty(t, observedID)
}

func TestSendRollbackOnFailure(t *testing.T) {
	store := NewStore()
	key := seedChannel(store, 3, 2, 1)
	before := store.Snapshot(key)

	fail := errors.New("boom")
	api := &fakeAPI{createMessage: func(ctx context.Context, input CreateMessageInput) (*Message, error) {
		return nil, fail
	}}

	engine := newTestEngine(api, store)
	_, err := engine.Send(context.Background(), CreateMessageInput{
		ChannelID: "chan-1",
		Content:   "doomed",
	})
	require.ErrorIs(t, err, fail)

	after, ok := store.Channel(key)
	require.True(t, ok)
	assert.Equal(t, before.payload, Payload(after), "cache must match the pre-mutation snapshot")
}

func TestSendValidatesBeforeOptimisticWrite(t *testing.T) {
	store := NewStore()
	key := seedChannel(store, 1)
	engine := newTestEngine(&fakeAPI{}, store)

	_, err := engine.Send(context.Background(), CreateMessageInput{ChannelID: "chan-1"})
	require.Error(t, err)

	feed, ok := store.Channel(key)
	require.True(t, ok)
	assert.Len(t, feed.Pages[0].Items, 1)
}

func TestSendCancelsInflightFetchFirst(t *testing.T) {
	store := NewStore()
	seedChannel(store, 2, 1)

	fetchCtx, generation, ok := store.BeginFetch(context.Background(), ChannelKey("chan-1"))
	require.True(t, ok)

	api := &fakeAPI{createMessage: func(ctx context.Context, input CreateMessageInput) (*Message, error) {
		confirmed := item(3)
		return &confirmed.Message, nil
	}}
	engine := newTestEngine(api, store)

	_, err := engine.Send(context.Background(), CreateMessageInput{ChannelID: "chan-1", Content: "hi"})
	require.NoError(t, err)

	assert.Error(t, fetchCtx.Err(), "in-flight fetch must be cancelled before the optimistic write")
	assert.False(t, store.CommitFetch(ChannelKey("chan-1"), generation, &ChannelFeed{}),
		"stale fetch must not clobber the optimistic state")
}

func TestThreadReplyPropagatesRepliesCount(t *testing.T) {
	store := NewStore()
	channelKey := seedChannel(store, 5, 4, 3)
	threadKey := ThreadKey("4")
	store.Set(threadKey, &ThreadFeed{Parent: item(4), Replies: []ListItem{item(6)}})

	api := &fakeAPI{createMessage: func(ctx context.Context, input CreateMessageInput) (*Message, error) {
		// Both caches already reflect the optimistic reply.
		thread, ok := store.Thread(threadKey)
		require.True(t, ok)
		require.Len(t, thread.Replies, 2)
		assert.True(t, IsOptimisticID(thread.Replies[1].ID), "reply splices at the newest edge")

		channel, ok := store.Channel(channelKey)
		require.True(t, ok)
		assert.Equal(t, 1, channel.Pages[0].Items[1].RepliesCount)

		confirmed := item(7)
		confirmed.ThreadID = "4"
		confirmed.Content = input.Content
		return &confirmed.Message, nil
	}}

	engine := newTestEngine(api, store)
	msg, err := engine.Send(context.Background(), CreateMessageInput{
		ChannelID: "chan-1",
		Content:   "a reply",
		ThreadID:  "4",
	})
	require.NoError(t, err)
	assert.Equal(t, "7", msg.ID)

	thread, ok := store.Thread(threadKey)
	require.True(t, ok)
	require.Len(t, thread.Replies, 2)
	assert.Equal(t, "7", thread.Replies[1].ID)
}

func TestThreadReplyRollsBackBothCaches(t *testing.T) {
	store := NewStore()
	channelKey := seedChannel(store, 5, 4, 3)
	threadKey := ThreadKey("4")
	store.Set(threadKey, &ThreadFeed{Parent: item(4)})

	channelBefore := store.Snapshot(channelKey)
	threadBefore := store.Snapshot(threadKey)

	api := &fakeAPI{createMessage: func(ctx context.Context, input CreateMessageInput) (*Message, error) {
		return nil, errors.New("rejected")
	}}
	engine := newTestEngine(api, store)

	_, err := engine.Send(context.Background(), CreateMessageInput{
		ChannelID: "chan-1",
		Content:   "a reply",
		ThreadID:  "4",
	})
	require.Error(t, err)

	channelAfter, _ := store.Channel(channelKey)
	threadAfter, _ := store.Thread(threadKey)
	assert.Equal(t, channelBefore.payload, Payload(channelAfter))
	assert.Equal(t, threadBefore.payload, Payload(threadAfter))
}

func TestEditPatchesEveryCache(t *testing.T) {
	store := NewStore()
	channelKey := seedChannel(store, 5, 4, 3)
	threadKey := ThreadKey("4")
	parent := item(4)
	parent.RepliesCount = 2
	store.Set(threadKey, &ThreadFeed{Parent: parent, Replies: []ListItem{item(6)}})

	api := &fakeAPI{updateMessage: func(ctx context.Context, messageID, content string) (*UpdateResult, error) {
		updated := item(4)
		updated.Content = content
		updated.UpdatedAt = testEpoch.Add(2 * time.Hour)
		return &UpdateResult{Message: updated.Message, CanEdit: true}, nil
	}}
	engine := newTestEngine(api, store)

	result, err := engine.Edit(context.Background(), "4", "edited content")
	require.NoError(t, err)
	assert.True(t, result.CanEdit)

	channel, _ := store.Channel(channelKey)
	assert.Equal(t, "edited content", channel.Pages[0].Items[1].Content)

	thread, _ := store.Thread(threadKey)
	assert.Equal(t, "edited content", thread.Parent.Content)
	assert.Equal(t, 2, thread.Parent.RepliesCount, "derived fields survive the patch")
}

func TestEditIsNotOptimistic(t *testing.T) {
	store := NewStore()
	key := seedChannel(store, 2, 1)
	before := store.Snapshot(key)

	api := &fakeAPI{updateMessage: func(ctx context.Context, messageID, content string) (*UpdateResult, error) {
		// Nothing may change locally before this call resolves.
		current, _ := store.Channel(key)
		assert.Equal(t, before.payload, Payload(current))
		return nil, errors.New("forbidden")
	}}
	engine := newTestEngine(api, store)

	_, err := engine.Edit(context.Background(), "2", "nope")
	require.Error(t, err)

	after, _ := store.Channel(key)
	assert.Equal(t, before.payload, Payload(after))
}

func TestToggleReactionAppliesToAllCaches(t *testing.T) {
	store := NewStore()
	channelKey := seedChannel(store, 5, 4, 3)
	threadKey := ThreadKey("4")
	store.Set(threadKey, &ThreadFeed{Parent: item(4)})

	server := []reactions.Grouped{{Emoji: "🎉", Count: 3, ReactedByMe: true}}
	api := &fakeAPI{toggleReaction: func(ctx context.Context, messageID, emoji string) (*ToggleResult, error) {
		// The optimistic bump is visible in both caches before the call
		// resolves.
		channel, _ := store.Channel(channelKey)
		require.Equal(t, []reactions.Grouped{{Emoji: "🎉", Count: 1, ReactedByMe: true}},
			channel.Pages[0].Items[1].Reactions)
		thread, _ := store.Thread(threadKey)
		require.Equal(t, []reactions.Grouped{{Emoji: "🎉", Count: 1, ReactedByMe: true}},
			thread.Parent.Reactions)

		return &ToggleResult{MessageID: messageID, Reactions: server}, nil
	}}
	engine := newTestEngine(api, store)

	result, err := engine.ToggleReaction(context.Background(), "4", "🎉")
	require.NoError(t, err)
	assert.Equal(t, server, result.Reactions)

	channel, _ := store.Channel(channelKey)
	assert.Equal(t, server, channel.Pages[0].Items[1].Reactions)
	thread, _ := store.Thread(threadKey)
	assert.Equal(t, server, thread.Parent.Reactions)
}

func TestToggleReactionRollsBackAllCaches(t *testing.T) {
	store := NewStore()
	channelKey := seedChannel(store, 5, 4, 3)
	threadKey := ThreadKey("4")
	parent := item(4)
	parent.Reactions = []reactions.Grouped{{Emoji: "👀", Count: 2, ReactedByMe: false}}
	store.Set(threadKey, &ThreadFeed{Parent: parent})

	channelBefore := store.Snapshot(channelKey)
	threadBefore := store.Snapshot(threadKey)

	api := &fakeAPI{toggleReaction: func(ctx context.Context, messageID, emoji string) (*ToggleResult, error) {
		return nil, errors.New("rate limited")
	}}
	engine := newTestEngine(api, store)

	_, err := engine.ToggleReaction(context.Background(), "4", "👀")
	require.Error(t, err)

	channelAfter, _ := store.Channel(channelKey)
	threadAfter, _ := store.Thread(threadKey)
	assert.Equal(t, channelBefore.payload, Payload(channelAfter))
	assert.Equal(t, threadBefore.payload, Payload(threadAfter))
}

func TestToggleRejectsOptimisticTargets(t *testing.T) {
	store := NewStore()
	engine := newTestEngine(&fakeAPI{}, store)

	_, err := engine.ToggleReaction(context.Background(), NewOptimisticID(), "👍")
	require.Error(t, err)
	_, err = engine.Edit(context.Background(), NewOptimisticID(), "text")
	require.Error(t, err)
}

func TestBumpReactionsToggleSymmetry(t *testing.T) {
	original := []reactions.Grouped{
		{Emoji: "👍", Count: 2, ReactedByMe: false},
		{Emoji: "🔥", Count: 1, ReactedByMe: true},
	}

	// Adding a new emoji and bumping it back off restores the input.
	once := bumpReactions(original, "🚀")
	require.Len(t, once, 3)
	assert.Equal(t, reactions.Grouped{Emoji: "🚀", Count: 1, ReactedByMe: true}, once[2])

	twice := bumpReactions(once, "🚀")
	assert.Equal(t, original, twice)

	// Bumping a sole reaction off removes the entry entirely.
	removed := bumpReactions(original, "🔥")
	assert.Equal(t, []reactions.Grouped{{Emoji: "👍", Count: 2, ReactedByMe: false}}, removed)

	// Decrement keeps the entry while other users still hold it.
	dec := bumpReactions(original, "👍")
	assert.Equal(t, reactions.Grouped{Emoji: "👍", Count: 1, ReactedByMe: false}, dec[0])
}
