package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/syncbus"
)

// eventTopics are the bus topics forwarded to browser views.
var eventTopics = []syncbus.Topic{
	syncbus.TopicCartUpdated,
	syncbus.TopicSearchApplied,
	syncbus.TopicSearchCleared,
	syncbus.TopicStorageChanged,
}

// events streams bus notifications as server-sent events. This is how
// decoupled views stay consistent with persisted state without polling: the
// same notifications in-page subscribers get, delivered over HTTP.
//
// Delivery keeps the bus's fire-and-forget semantics: a slow consumer's
// buffer overflow drops events rather than blocking publishers, and a view
// that connects after a publish does not receive it retroactively.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErrorMessage(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Bus handlers run on publisher goroutines and must not block, so they
	// hand events to this request's goroutine through a buffered channel.
	ch := make(chan syncbus.Event, 64)

	cancels := make([]func(), 0, len(eventTopics))
	for _, topic := range eventTopics {
		cancels = append(cancels, h.bus.Subscribe(topic, func(_ context.Context, ev syncbus.Event) {
			select {
			case ch <- ev:
			default:
			}
		}))
	}
	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			if err := writeSSE(w, ev); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev syncbus.Event) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		payload = []byte("null")
	}
	// SSE data lines must not contain raw newlines.
	data := strings.ReplaceAll(string(payload), "\n", "")

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Topic, data)
	return err
}

func (h *Handler) applySearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	h.bus.Publish(r.Context(), syncbus.TopicSearchApplied, req.Query)
	zctx.From(r.Context()).Debug("search applied", zap.String("query", req.Query))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearSearch(w http.ResponseWriter, r *http.Request) {
	h.bus.Publish(r.Context(), syncbus.TopicSearchCleared, "")
	w.WriteHeader(http.StatusNoContent)
}
