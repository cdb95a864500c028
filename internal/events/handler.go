package events

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/huddle-chat/huddle/internal/channels"
	"github.com/huddle-chat/huddle/internal/common/errors"
	"github.com/huddle-chat/huddle/internal/observability"
)

// Handler serves a channel's event stream over SSE. Clients that prefer
// polling simply never connect here.
type Handler struct {
	hub      *Hub
	channels *channels.Service
	metrics  *observability.Metrics
}

func NewHandler(hub *Hub, channels *channels.Service, metrics *observability.Metrics) *Handler {
	return &Handler{
		hub:      hub,
		channels: channels,
		metrics:  metrics,
	}
}

func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	channelID := mux.Vars(r)["channelId"]

	ch, err := h.channels.GetScoped(r.Context(), channelID)
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		errors.WriteHTTP(w, errors.Internal("streaming unsupported", nil))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	stream, cancel := h.hub.Subscribe(ch.ID.String())
	defer cancel()

	if h.metrics != nil {
		h.metrics.StreamOpened()
		defer h.metrics.StreamClosed()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-stream:
			if !open {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", event.ID, event.Type, data)
			flusher.Flush()
		}
	}
}
