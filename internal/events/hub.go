package events

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventType string

const (
	EventMessageCreated  EventType = "message.created"
	EventMessageEdited   EventType = "message.edited"
	EventReactionUpdated EventType = "reaction.updated"
)

type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ChannelID string      `json:"channelId"`
	Payload   interface{} `json:"payload"`
}

// Hub fans channel events out to SSE subscribers. Slow subscribers have
// events dropped rather than blocking the broadcaster.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*subscriber]bool
	logger   *zap.Logger
	shutdown bool
}

type subscriber struct {
	events chan Event
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		channels: make(map[string]map[*subscriber]bool),
		logger:   logger,
	}
}

// Subscribe registers for a channel's events. The returned cancel func
// must be called when the consumer goes away.
func (h *Hub) Subscribe(channelID string) (<-chan Event, func()) {
	sub := &subscriber{events: make(chan Event, 64)}

	h.mu.Lock()
	if h.shutdown {
		h.mu.Unlock()
		close(sub.events)
		return sub.events, func() {}
	}
	if h.channels[channelID] == nil {
		h.channels[channelID] = make(map[*subscriber]bool)
	}
	h.channels[channelID][sub] = true
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if subs, ok := h.channels[channelID]; ok {
			if subs[sub] {
				delete(subs, sub)
				close(sub.events)
			}
			if len(subs) == 0 {
				delete(h.channels, channelID)
			}
		}
		h.mu.Unlock()
	}

	return sub.events, cancel
}

func (h *Hub) Broadcast(channelID string, eventType EventType, payload interface{}) {
	event := Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		ChannelID: channelID,
		Payload:   payload,
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.channels[channelID] {
		select {
		case sub.events <- event:
		default:
			h.logger.Warn("dropping event for slow subscriber",
				zap.String("channel_id", channelID),
				zap.String("event_type", string(eventType)),
			)
		}
	}
}

func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.shutdown = true
	for channelID, subs := range h.channels {
		for sub := range subs {
			close(sub.events)
		}
		delete(h.channels, channelID)
	}
}

func (h *Hub) SubscriberCount(channelID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channelID])
}
