package feed

import (
	"context"
	"errors"
)

// Pager loads a channel's top-level messages backward from newest. Pages
// accumulate in the store; display order comes from Items, which flattens
// and reverses them into an ascending, oldest-first sequence.
type Pager struct {
	api       API
	store     *Store
	key       Key
	channelID string
	limit     int
}

func NewPager(api API, store *Store, channelID string, limit int) *Pager {
	return &Pager{
		api:       api,
		store:     store,
		key:       ChannelKey(channelID),
		channelID: channelID,
		limit:     limit,
	}
}

func (p *Pager) Key() Key {
	return p.key
}

// Loaded reports whether the initial page has been fetched.
func (p *Pager) Loaded() bool {
	_, ok := p.store.Channel(p.key)
	return ok
}

// LoadInitial fetches the newest page and resets the cached feed to it.
// A concurrent fetch for the same key makes this a no-op.
func (p *Pager) LoadInitial(ctx context.Context) error {
	fetchCtx, generation, ok := p.store.BeginFetch(ctx, p.key)
	if !ok {
		return nil
	}

	page, err := p.api.ListMessages(fetchCtx, p.channelID, "", p.limit)
	if err != nil {
		p.store.AbortFetch(p.key)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	p.store.CommitFetch(p.key, generation, &ChannelFeed{Pages: []Page{*page}})
	return nil
}

// LoadOlder fetches the page older than the oldest loaded one, using its
// cursor, and appends it. No-op when nothing is loaded yet, when no older
// page exists, or when a fetch for this key is already in flight.
func (p *Pager) LoadOlder(ctx context.Context) error {
	if _, ok := p.store.Channel(p.key); !ok {
		return p.LoadInitial(ctx)
	}

	fetchCtx, generation, ok := p.store.BeginFetch(ctx, p.key)
	if !ok {
		return nil
	}

	// Read the base pages after BeginFetch so the generation captured
	// above covers them.
	feed, ok := p.store.Channel(p.key)
	if !ok || len(feed.Pages) == 0 {
		p.store.AbortFetch(p.key)
		return nil
	}
	cursor := feed.Pages[len(feed.Pages)-1].NextCursor
	if cursor == "" {
		p.store.AbortFetch(p.key)
		return nil
	}

	page, err := p.api.ListMessages(fetchCtx, p.channelID, cursor, p.limit)
	if err != nil {
		p.store.AbortFetch(p.key)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	// The generation check inside CommitFetch guarantees the base pages
	// are unchanged since BeginFetch, so appending to them is safe.
	pages := make([]Page, len(feed.Pages), len(feed.Pages)+1)
	copy(pages, feed.Pages)
	pages = append(pages, *page)
	p.store.CommitFetch(p.key, generation, &ChannelFeed{Pages: pages})
	return nil
}

// Items returns the loaded messages in display order: oldest first.
func (p *Pager) Items() []ListItem {
	feed, ok := p.store.Channel(p.key)
	if !ok {
		return nil
	}
	return flattenPages(feed.Pages)
}

// HasMore reports whether an older page exists beyond what is loaded.
func (p *Pager) HasMore() bool {
	feed, ok := p.store.Channel(p.key)
	if !ok || len(feed.Pages) == 0 {
		return false
	}
	return feed.Pages[len(feed.Pages)-1].NextCursor != ""
}

// flattenPages reverses page order and item order within each page,
// turning newest-first windows into one ascending sequence.
func flattenPages(pages []Page) []ListItem {
	total := 0
	for _, page := range pages {
		total += len(page.Items)
	}
	out := make([]ListItem, 0, total)
	for i := len(pages) - 1; i >= 0; i-- {
		items := pages[i].Items
		for j := len(items) - 1; j >= 0; j-- {
			out = append(out, items[j])
		}
	}
	return out
}
