package feed

import (
	"context"
	"sort"
	"sync"
)

type Kind string

const (
	KindChannel Kind = "channel"
	KindThread  Kind = "thread"
)

// Key addresses one cached feed: a channel's paginated top-level list or
// a single thread's parent-plus-replies list.
type Key struct {
	Kind  Kind
	Scope string
}

func ChannelKey(channelID string) Key {
	return Key{Kind: KindChannel, Scope: channelID}
}

func ThreadKey(messageID string) Key {
	return Key{Kind: KindThread, Scope: messageID}
}

// Payload is a tagged cache value. Implementations are *ChannelFeed and
// *ThreadFeed; the closed set keeps snapshot copies exhaustive.
type Payload interface {
	clone() Payload
}

// ChannelFeed holds the loaded pages in fetch order: pages[0] is the
// newest window, each later page is older. Items within a page are in
// server order, newest first.
type ChannelFeed struct {
	Pages []Page
}

func (f *ChannelFeed) clone() Payload {
	if f == nil {
		return (*ChannelFeed)(nil)
	}
	pages := make([]Page, len(f.Pages))
	for i, p := range f.Pages {
		pages[i] = Page{
			Items:      cloneItems(p.Items),
			NextCursor: p.NextCursor,
		}
	}
	return &ChannelFeed{Pages: pages}
}

// ThreadFeed holds a parent message and its replies in ascending order.
type ThreadFeed struct {
	Parent  ListItem
	Replies []ListItem
}

func (f *ThreadFeed) clone() Payload {
	if f == nil {
		return (*ThreadFeed)(nil)
	}
	return &ThreadFeed{
		Parent:  cloneItem(f.Parent),
		Replies: cloneItems(f.Replies),
	}
}

func cloneItems(items []ListItem) []ListItem {
	if items == nil {
		return nil
	}
	out := make([]ListItem, len(items))
	for i, item := range items {
		out[i] = cloneItem(item)
	}
	return out
}

func cloneItem(item ListItem) ListItem {
	if item.Reactions != nil {
		item.Reactions = append(item.Reactions[:0:0], item.Reactions...)
	}
	return item
}

type entry struct {
	payload    Payload
	generation uint64
	cancel     context.CancelFunc
}

// Store is the shared, injectable cache for feed payloads. All writes are
// whole-value replacements under one mutex, and every write bumps the
// key's generation so a fetch that was in flight when the write happened
// can be detected and discarded.
type Store struct {
	mu      sync.Mutex
	entries map[Key]*entry
}

func NewStore() *Store {
	return &Store{entries: make(map[Key]*entry)}
}

func (s *Store) get(key Key) *entry {
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	return e
}

// Get returns the current payload for key. Callers must treat the result
// as read-only; all modifications go through Mutate or Set.
func (s *Store) Get(key Key) (Payload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || e.payload == nil {
		return nil, false
	}
	return e.payload, true
}

// Channel returns the channel feed cached under key, if any.
func (s *Store) Channel(key Key) (*ChannelFeed, bool) {
	p, ok := s.Get(key)
	if !ok {
		return nil, false
	}
	feed, ok := p.(*ChannelFeed)
	return feed, ok
}

// Thread returns the thread feed cached under key, if any.
func (s *Store) Thread(key Key) (*ThreadFeed, bool) {
	p, ok := s.Get(key)
	if !ok {
		return nil, false
	}
	feed, ok := p.(*ThreadFeed)
	return feed, ok
}

func (s *Store) Set(key Key, payload Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.get(key)
	e.payload = payload
	e.generation++
}

// Mutate cancels any in-flight fetch for key and then applies fn to the
// current payload, all under the store lock. The cancel-before-write
// ordering is what keeps a late-arriving fetch from clobbering an
// optimistic edit: the generation bump makes its commit a no-op.
func (s *Store) Mutate(key Key, fn func(Payload) Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.get(key)
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.payload = fn(e.payload)
	e.generation++
}

// CancelInflight cancels and detaches any in-flight fetch for key. The
// cancelled fetch is treated as if it never started.
func (s *Store) CancelInflight(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.generation++
}

// BeginFetch registers a fetch for key. It refuses (ok=false) when a
// fetch for the same key is already in flight, giving single-flight
// semantics per key. The returned generation must be handed back to
// CommitFetch.
func (s *Store) BeginFetch(ctx context.Context, key Key) (context.Context, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.get(key)
	if e.cancel != nil {
		return nil, 0, false
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	return fetchCtx, e.generation, true
}

// CommitFetch installs a fetched payload if and only if no write or
// cancellation happened since the matching BeginFetch. It reports whether
// the payload was installed.
func (s *Store) CommitFetch(key Key, generation uint64, payload Payload) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.get(key)
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	if e.generation != generation {
		return false
	}
	e.payload = payload
	e.generation++
	return true
}

// AbortFetch detaches a failed or abandoned fetch without touching the
// cached payload.
func (s *Store) AbortFetch(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

// KeysSorted returns every key with a cached payload, in a stable order
// so multi-cache operations touch caches deterministically.
func (s *Store) KeysSorted() []Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]Key, 0, len(s.entries))
	for key, e := range s.entries {
		if e.payload != nil {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return keys[i].Scope < keys[j].Scope
	})
	return keys
}

// Snapshot captures a deep copy of the payload under key for later
// Restore. Restoring is how optimistic mutations roll back.
type Snapshot struct {
	key     Key
	payload Payload
	exists  bool
}

func (s *Store) Snapshot(key Key) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || e.payload == nil {
		return Snapshot{key: key}
	}
	return Snapshot{key: key, payload: e.payload.clone(), exists: true}
}

func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.get(snap.key)
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	if snap.exists {
		e.payload = snap.payload
	} else {
		e.payload = nil
	}
	e.generation++
}
