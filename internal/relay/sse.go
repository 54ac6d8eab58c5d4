package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"debate-arena/internal/debate"
)

// sseWriter emits data-only SSE frames and guarantees the [DONE] terminator
// is written at most once.
type sseWriter struct {
	w        http.ResponseWriter
	flusher  http.Flusher
	doneSent bool
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support streaming")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &sseWriter{w: w, flusher: flusher}, nil
}

func (s *sseWriter) writeFrame(f frame) {
	b, err := json.Marshal(f)
	if err != nil {
		return
	}
	fmt.Fprintf(s.w, "data: %s\n\n", b)
	s.flusher.Flush()
}

func (s *sseWriter) content(text string) {
	s.writeFrame(frame{Content: text})
}

func (s *sseWriter) usage(u debate.Usage) {
	s.writeFrame(frame{Usage: &u})
}

func (s *sseWriter) error(code string) {
	s.writeFrame(frame{Error: code})
}

// done writes the stream terminator. Safe to call more than once; every
// completed relay response ends with exactly one of these.
func (s *sseWriter) done() {
	if s.doneSent {
		return
	}
	s.doneSent = true
	fmt.Fprint(s.w, "data: [DONE]\n\n")
	s.flusher.Flush()
}
