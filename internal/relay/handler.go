package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"debate-arena/internal/debate"
)

// KeyVerifier authenticates the bearer token for relay calls.
type KeyVerifier interface {
	VerifyAPIKey(ctx context.Context, key string) error
}

// Handler relays a chat completion request to the upstream provider and
// streams the reply back as data-only SSE frames. Every response body ends
// with exactly one "data: [DONE]" regardless of how the stream went.
type Handler struct {
	Streamer       debate.Streamer
	Keys           KeyVerifier
	RequestTimeout time.Duration
	IdleTimeout    time.Duration
}

func NewHandler(streamer debate.Streamer, keys KeyVerifier, requestTimeout, idleTimeout time.Duration) *Handler {
	if requestTimeout <= 0 {
		requestTimeout = 120 * time.Second
	}
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Second
	}
	return &Handler{Streamer: streamer, Keys: keys, RequestTimeout: requestTimeout, IdleTimeout: idleTimeout}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	key, err := extractBearer(r.Header.Get("Authorization"))
	if err != nil {
		writeErr(w, http.StatusUnauthorized, "invalid_api_key")
		return
	}
	if err := h.Keys.VerifyAPIKey(r.Context(), key); err != nil {
		writeErr(w, http.StatusUnauthorized, "invalid_api_key")
		return
	}

	var payload chatPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if payload.Model == "" || len(payload.Messages) == 0 {
		writeErr(w, http.StatusBadRequest, "invalid_request")
		return
	}

	sw, err := newSSEWriter(w)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "streaming_unsupported")
		return
	}
	defer sw.done()

	// Absolute ceiling for the whole exchange; also fires when the client
	// goes away, since it derives from the request context.
	ctx, cancel := context.WithTimeout(r.Context(), h.RequestTimeout)
	defer cancel()

	events, err := h.Streamer.StreamChat(ctx, debate.ChatRequest{
		Model:        payload.Model,
		SystemPrompt: payload.SystemPrompt,
		Messages:     payload.Messages,
	})
	if err != nil {
		log.Warn().Err(err).Str("model", payload.Model).Msg("relay failed to open upstream stream")
		sw.error(classifyUpstream(err))
		return
	}

	idle := time.NewTimer(h.IdleTimeout)
	defer idle.Stop()
	for {
		select {
		case <-ctx.Done():
			if r.Context().Err() != nil {
				// Client disconnected; the terminator write is a courtesy
				// on a socket that is likely already gone.
				return
			}
			sw.error(CodeUpstreamTimeout)
			return
		case <-idle.C:
			log.Warn().Str("model", payload.Model).Msg("relay idle timeout, aborting stream")
			sw.error(CodeUpstreamTimeout)
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(h.IdleTimeout)
			switch {
			case ev.Err != nil:
				sw.error(classifyUpstream(ev.Err))
				return
			case ev.Usage != nil:
				sw.usage(*ev.Usage)
			case ev.Done:
				return
			case ev.Delta != "":
				sw.content(ev.Delta)
			}
		}
	}
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}

func extractBearer(v string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(v, prefix) || len(v) == len(prefix) {
		return "", errors.New("missing bearer token")
	}
	return strings.TrimPrefix(v, prefix), nil
}
