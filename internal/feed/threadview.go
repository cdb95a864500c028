package feed

import (
	"context"
	"errors"
)

// ThreadView is the smaller parallel of the channel feed: one parent
// message plus its replies, fetched in a single call with no pagination.
// Replies go through the same optimistic engine, which also keeps the
// parent's reply count in the channel feed consistent.
type ThreadView struct {
	api      API
	store    *Store
	engine   *Engine
	parentID string
	key      Key
}

func NewThreadView(api API, store *Store, engine *Engine, parentID string) *ThreadView {
	return &ThreadView{
		api:      api,
		store:    store,
		engine:   engine,
		parentID: parentID,
		key:      ThreadKey(parentID),
	}
}

func (v *ThreadView) Key() Key {
	return v.key
}

// Load fetches the parent and all replies. A fetch already in flight for
// this thread makes it a no-op.
func (v *ThreadView) Load(ctx context.Context) error {
	fetchCtx, generation, ok := v.store.BeginFetch(ctx, v.key)
	if !ok {
		return nil
	}

	thread, err := v.api.ListThread(fetchCtx, v.parentID)
	if err != nil {
		v.store.AbortFetch(v.key)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	v.store.CommitFetch(v.key, generation, &ThreadFeed{
		Parent:  thread.Parent,
		Replies: thread.Messages,
	})
	return nil
}

func (v *ThreadView) Loaded() bool {
	_, ok := v.store.Thread(v.key)
	return ok
}

func (v *ThreadView) Parent() (ListItem, bool) {
	feed, ok := v.store.Thread(v.key)
	if !ok {
		return ListItem{}, false
	}
	return feed.Parent, true
}

// Replies returns the thread's replies in ascending order.
func (v *ThreadView) Replies() []ListItem {
	feed, ok := v.store.Thread(v.key)
	if !ok {
		return nil
	}
	return feed.Replies
}

// Reply sends an optimistic reply into this thread.
func (v *ThreadView) Reply(ctx context.Context, channelID, content, imageURL string) (*Message, error) {
	return v.engine.Send(ctx, CreateMessageInput{
		ChannelID: channelID,
		Content:   content,
		ImageURL:  imageURL,
		ThreadID:  v.parentID,
	})
}
