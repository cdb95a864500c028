package feed

import (
	"context"
	"time"

	"github.com/huddle-chat/huddle/internal/common/errors"
	"github.com/huddle-chat/huddle/internal/reactions"
)

// Engine applies optimistic mutations to the store and reconciles them
// against server responses. Send and reaction toggles show instantly;
// edits wait for confirmation. Any remote failure restores the exact
// pre-mutation snapshots.
type Engine struct {
	api    API
	store  *Store
	viewer Viewer
	now    func() time.Time
}

func NewEngine(api API, store *Store, viewer Viewer) *Engine {
	return &Engine{
		api:    api,
		store:  store,
		viewer: viewer,
		now:    time.Now,
	}
}

// Send creates a message, splicing an optimistic copy at the newest edge
// of the target feed before the remote call resolves. A thread send also
// bumps the parent's reply count in the channel feed.
func (e *Engine) Send(ctx context.Context, input CreateMessageInput) (*Message, error) {
	if input.Content == "" {
		return nil, errors.BadRequest("content is required")
	}
	if input.ChannelID == "" {
		return nil, errors.BadRequest("channelId is required")
	}

	tempID := NewOptimisticID()
	now := e.now()
	optimistic := ListItem{
		Message: Message{
			ID:           tempID,
			ChannelID:    input.ChannelID,
			ThreadID:     input.ThreadID,
			Content:      input.Content,
			ImageURL:     input.ImageURL,
			AuthorID:     e.viewer.ID,
			AuthorName:   e.viewer.Name,
			AuthorEmail:  e.viewer.Email,
			AuthorAvatar: e.viewer.AvatarURL,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		Reactions: []reactions.Grouped{},
	}

	targetKey := ChannelKey(input.ChannelID)
	if input.ThreadID != "" {
		targetKey = ThreadKey(input.ThreadID)
	}

	snapshots := []Snapshot{e.store.Snapshot(targetKey)}

	if input.ThreadID == "" {
		e.store.Mutate(targetKey, func(p Payload) Payload {
			feed, ok := p.(*ChannelFeed)
			if !ok || feed == nil || len(feed.Pages) == 0 {
				return p
			}
			next := feed.clone().(*ChannelFeed)
			newest := &next.Pages[0]
			newest.Items = append([]ListItem{optimistic}, newest.Items...)
			return next
		})
	} else {
		e.store.Mutate(targetKey, func(p Payload) Payload {
			feed, ok := p.(*ThreadFeed)
			if !ok || feed == nil {
				return p
			}
			next := feed.clone().(*ThreadFeed)
			next.Replies = append(next.Replies, optimistic)
			return next
		})

		channelKey := ChannelKey(input.ChannelID)
		snapshots = append(snapshots, e.store.Snapshot(channelKey))
		e.store.Mutate(channelKey, func(p Payload) Payload {
			feed, ok := p.(*ChannelFeed)
			if !ok || feed == nil {
				return p
			}
			next := feed.clone().(*ChannelFeed)
			patchChannelItem(next, input.ThreadID, func(item *ListItem) {
				item.RepliesCount++
			})
			return next
		})
	}

	msg, err := e.api.CreateMessage(ctx, input)
	if err != nil {
		for _, snap := range snapshots {
			e.store.Restore(snap)
		}
		return nil, err
	}

	// Reconcile by the correlation token, not by position: the feed may
	// have gained other items while the call was in flight.
	e.store.Mutate(targetKey, func(p Payload) Payload {
		switch feed := p.(type) {
		case *ChannelFeed:
			next := feed.clone().(*ChannelFeed)
			patchChannelItem(next, tempID, func(item *ListItem) {
				item.Message = *msg
			})
			return next
		case *ThreadFeed:
			next := feed.clone().(*ThreadFeed)
			for i := range next.Replies {
				if next.Replies[i].ID == tempID {
					next.Replies[i].Message = *msg
				}
			}
			return next
		default:
			return p
		}
	})
	return msg, nil
}

// Edit updates a message's content. It is not optimistic: nothing changes
// locally until the server confirms, then the confirmed record is patched
// into every cache that holds the message.
func (e *Engine) Edit(ctx context.Context, messageID, content string) (*UpdateResult, error) {
	if content == "" {
		return nil, errors.BadRequest("content is required")
	}
	if IsOptimisticID(messageID) {
		return nil, errors.BadRequest("message is not yet confirmed")
	}

	result, err := e.api.UpdateMessage(ctx, messageID, content)
	if err != nil {
		return nil, err
	}

	for _, key := range e.keysContaining(messageID) {
		e.store.Mutate(key, func(p Payload) Payload {
			return patchPayload(p, messageID, func(item *ListItem) {
				derived := *item
				item.Message = result.Message
				item.RepliesCount = derived.RepliesCount
				item.Reactions = derived.Reactions
			})
		})
	}
	return result, nil
}

// ToggleReaction bumps the grouped-reaction set of the message in every
// cache that holds it, then reconciles with the server's aggregate. All
// touched caches roll back together on failure.
func (e *Engine) ToggleReaction(ctx context.Context, messageID, emoji string) (*ToggleResult, error) {
	if emoji == "" {
		return nil, errors.BadRequest("emoji is required")
	}
	if IsOptimisticID(messageID) {
		return nil, errors.BadRequest("message is not yet confirmed")
	}

	keys := e.keysContaining(messageID)
	snapshots := make([]Snapshot, len(keys))
	for i, key := range keys {
		snapshots[i] = e.store.Snapshot(key)
	}

	for _, key := range keys {
		e.store.Mutate(key, func(p Payload) Payload {
			return patchPayload(p, messageID, func(item *ListItem) {
				item.Reactions = bumpReactions(item.Reactions, emoji)
			})
		})
	}

	result, err := e.api.ToggleReaction(ctx, messageID, emoji)
	if err != nil {
		for _, snap := range snapshots {
			e.store.Restore(snap)
		}
		return nil, err
	}

	for _, key := range keys {
		e.store.Mutate(key, func(p Payload) Payload {
			return patchPayload(p, messageID, func(item *ListItem) {
				item.Reactions = append([]reactions.Grouped(nil), result.Reactions...)
			})
		})
	}
	return result, nil
}

// bumpReactions is the local toggle transform: an existing entry for the
// emoji is decremented and dropped at zero, a missing one is added with
// the viewer as its sole reactor.
func bumpReactions(rxns []reactions.Grouped, emoji string) []reactions.Grouped {
	for i, g := range rxns {
		if g.Emoji != emoji {
			continue
		}
		if g.Count <= 1 {
			out := make([]reactions.Grouped, 0, len(rxns)-1)
			out = append(out, rxns[:i]...)
			return append(out, rxns[i+1:]...)
		}
		out := append([]reactions.Grouped(nil), rxns...)
		out[i].Count--
		out[i].ReactedByMe = false
		return out
	}
	return append(append([]reactions.Grouped(nil), rxns...), reactions.Grouped{
		Emoji:       emoji,
		Count:       1,
		ReactedByMe: true,
	})
}

// keysContaining lists every cache key whose payload holds the message.
func (e *Engine) keysContaining(messageID string) []Key {
	var keys []Key
	for _, key := range e.store.KeysSorted() {
		payload, ok := e.store.Get(key)
		if !ok {
			continue
		}
		if payloadContains(payload, messageID) {
			keys = append(keys, key)
		}
	}
	return keys
}

func payloadContains(p Payload, messageID string) bool {
	switch feed := p.(type) {
	case *ChannelFeed:
		for _, page := range feed.Pages {
			for _, item := range page.Items {
				if item.ID == messageID {
					return true
				}
			}
		}
	case *ThreadFeed:
		if feed.Parent.ID == messageID {
			return true
		}
		for _, item := range feed.Replies {
			if item.ID == messageID {
				return true
			}
		}
	}
	return false
}

// patchPayload clones p and applies fn to every item matching messageID.
func patchPayload(p Payload, messageID string, fn func(*ListItem)) Payload {
	switch feed := p.(type) {
	case *ChannelFeed:
		next := feed.clone().(*ChannelFeed)
		patchChannelItem(next, messageID, fn)
		return next
	case *ThreadFeed:
		next := feed.clone().(*ThreadFeed)
		if next.Parent.ID == messageID {
			fn(&next.Parent)
		}
		for i := range next.Replies {
			if next.Replies[i].ID == messageID {
				fn(&next.Replies[i])
			}
		}
		return next
	default:
		return p
	}
}

func patchChannelItem(feed *ChannelFeed, messageID string, fn func(*ListItem)) {
	for pi := range feed.Pages {
		items := feed.Pages[pi].Items
		for i := range items {
			if items[i].ID == messageID {
				fn(&items[i])
			}
		}
	}
}
