package debategateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

var ssePingInterval = 15 * time.Second

// EventsSSEHandler streams a debate's event feed. Reconnecting clients pass
// Last-Event-ID and get the missed window replayed from the buffer.
func EventsSSEHandler(coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := requireUser(coord, w, r)
		if user == nil {
			return
		}
		debateID := chi.URLParam(r, "debate_id")
		if _, err := coord.sessionFor(debateID, user.ID); err != nil {
			writeErr(w, http.StatusNotFound, "debate_not_found")
			return
		}
		buf := coord.getDebateBuffer(debateID)
		if buf == nil {
			writeErr(w, http.StatusNotFound, "debate_not_found")
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeErr(w, http.StatusInternalServerError, "stream_not_supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		for _, ev := range buf.ReplayAfter(r.Header.Get("Last-Event-ID")) {
			if err := writeSSEEvent(w, ev); err != nil {
				return
			}
		}
		flusher.Flush()

		ch := buf.Subscribe()
		defer buf.Unsubscribe(ch)
		ticker := time.NewTicker(ssePingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if err := writeSSEEvent(w, ev); err != nil {
					return
				}
				flusher.Flush()
			case <-ticker.C:
				ping := DebateEvent{
					Event:    "ping",
					DebateID: debateID,
					ServerTS: time.Now().UnixMilli(),
					Data:     map[string]any{"ts": time.Now().UnixMilli()},
				}
				if err := writeSSEEvent(w, ping); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, ev DebateEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if ev.EventID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", ev.EventID); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "event: %s\n", ev.Event); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
