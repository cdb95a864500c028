package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/huddle-chat/huddle/internal/common/errors"
	"github.com/huddle-chat/huddle/internal/observability"
)

type Handler struct {
	service *Service
	metrics *observability.Metrics
}

func NewHandler(service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{service: service, metrics: metrics}
}

// ThreadSummary streams a generated thread summary as SSE delta events,
// terminated by a "done" event. The client concatenates the deltas.
// Clients that do not accept text/event-stream get the complete summary
// as a single JSON response instead.
func (h *Handler) ThreadSummary(w http.ResponseWriter, r *http.Request) {
	if !h.service.Enabled() {
		apperrors.WriteHTTP(w, apperrors.NewAppError(http.StatusServiceUnavailable, "ai summaries are not configured", nil))
		return
	}

	messageID := r.URL.Query().Get("messageId")
	if messageID == "" {
		apperrors.WriteHTTP(w, apperrors.BadRequest("messageId is required"))
		return
	}

	if !strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		summary, err := h.service.Summarize(r.Context(), messageID)
		if err != nil {
			apperrors.WriteHTTP(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"summary": summary})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		apperrors.WriteHTTP(w, apperrors.Internal("streaming unsupported", nil))
		return
	}

	stream, err := h.service.SummaryStream(r.Context(), messageID)
	if err != nil {
		apperrors.WriteHTTP(w, err)
		return
	}
	defer stream.Close()

	if h.metrics != nil {
		h.metrics.StreamOpened()
		defer h.metrics.StreamClosed()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			fmt.Fprint(w, "event: done\ndata: {}\n\n")
			flusher.Flush()
			return
		}
		if err != nil {
			// Headers are already sent, so surface the failure in-stream.
			fmt.Fprint(w, "event: error\ndata: {\"error\":\"summary stream interrupted\"}\n\n")
			flusher.Flush()
			return
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta, err := json.Marshal(map[string]string{"delta": resp.Choices[0].Delta.Content})
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "event: delta\ndata: %s\n\n", delta)
		flusher.Flush()
	}
}
