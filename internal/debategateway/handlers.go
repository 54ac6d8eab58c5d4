package debategateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"debate-arena/internal/debate"
	"debate-arena/internal/store"
)

func writeErr(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errDebateNotFound):
		return http.StatusNotFound, "debate_not_found"
	case errors.Is(err, errDebateAlreadyActive), errors.Is(err, debate.ErrNotIdle):
		return http.StatusConflict, "debate_already_active"
	case errors.Is(err, errTopicRequired):
		return http.StatusBadRequest, "topic_required"
	case errors.Is(err, errUnsupportedLanguage):
		return http.StatusBadRequest, "unsupported_language"
	case errors.Is(err, errInsufficientCredits), errors.Is(err, store.ErrInsufficientCredits):
		return http.StatusPaymentRequired, "insufficient_credits"
	case errors.Is(err, debate.ErrRosterTooSmall):
		return http.StatusBadRequest, "need_two_agents"
	case errors.Is(err, debate.ErrNoModerator):
		return http.StatusBadRequest, "moderator_missing"
	case errors.Is(err, debate.ErrNotRunning):
		return http.StatusConflict, "debate_not_running"
	case errors.Is(err, debate.ErrNotPaused):
		return http.StatusConflict, "debate_not_paused"
	case errors.Is(err, debate.ErrNotUserTurn):
		return http.StatusConflict, "not_user_turn"
	case errors.Is(err, debate.ErrEmptyMessage):
		return http.StatusBadRequest, "empty_message"
	case errors.Is(err, errInvalidAPIKey):
		return http.StatusUnauthorized, "invalid_api_key"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// requireUser resolves the bearer token to a user, or writes a 401.
func requireUser(coord *Coordinator, w http.ResponseWriter, r *http.Request) *store.User {
	auth := r.Header.Get("Authorization")
	key := strings.TrimPrefix(auth, "Bearer ")
	if key == auth {
		key = ""
	}
	user, err := authenticateUser(r.Context(), coord.store, key)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, "invalid_api_key")
		return nil
	}
	return user
}

func CreateDebateHandler(coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := requireUser(coord, w, r)
		if user == nil {
			return
		}
		var req CreateDebateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid_request")
			return
		}
		res, err := coord.CreateDebate(r.Context(), user, req)
		if err != nil {
			code, msg := statusFor(err)
			writeErr(w, code, msg)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(res)
	}
}

func StateHandler(coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := requireUser(coord, w, r)
		if user == nil {
			return
		}
		state, err := coord.State(r.Context(), user, chi.URLParam(r, "debate_id"))
		if err != nil {
			code, msg := statusFor(err)
			writeErr(w, code, msg)
			return
		}
		writeJSON(w, state)
	}
}

func PauseHandler(coord *Coordinator) http.HandlerFunc {
	return lifecycleHandler(coord, func(c *Coordinator, user *store.User, id string, r *http.Request) error {
		return c.Pause(r.Context(), user, id)
	})
}

func ResumeHandler(coord *Coordinator) http.HandlerFunc {
	return lifecycleHandler(coord, func(c *Coordinator, user *store.User, id string, r *http.Request) error {
		return c.Resume(r.Context(), user, id)
	})
}

func DeleteDebateHandler(coord *Coordinator) http.HandlerFunc {
	return lifecycleHandler(coord, func(c *Coordinator, user *store.User, id string, r *http.Request) error {
		return c.Reset(r.Context(), user, id)
	})
}

func lifecycleHandler(coord *Coordinator, fn func(*Coordinator, *store.User, string, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := requireUser(coord, w, r)
		if user == nil {
			return
		}
		debateID := chi.URLParam(r, "debate_id")
		if err := fn(coord, user, debateID, r); err != nil {
			code, msg := statusFor(err)
			writeErr(w, code, msg)
			return
		}
		state, err := coord.State(r.Context(), user, debateID)
		if err != nil {
			writeJSON(w, map[string]any{"ok": true})
			return
		}
		writeJSON(w, state)
	}
}

func HandHandler(coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := requireUser(coord, w, r)
		if user == nil {
			return
		}
		var req HandRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid_request")
			return
		}
		if err := coord.SetHand(r.Context(), user, chi.URLParam(r, "debate_id"), req.Raised); err != nil {
			code, msg := statusFor(err)
			writeErr(w, code, msg)
			return
		}
		writeJSON(w, map[string]any{"raised": req.Raised})
	}
}

func SubmitMessageHandler(coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := requireUser(coord, w, r)
		if user == nil {
			return
		}
		var req MessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid_request")
			return
		}
		msg, err := coord.SubmitMessage(r.Context(), user, chi.URLParam(r, "debate_id"), req.Content)
		if err != nil {
			code, m := statusFor(err)
			writeErr(w, code, m)
			return
		}
		writeJSON(w, msg)
	}
}

func ActiveDebateHandler(coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := requireUser(coord, w, r)
		if user == nil {
			return
		}
		res, err := coord.ActiveDebate(r.Context(), user)
		if err != nil {
			code, msg := statusFor(err)
			writeErr(w, code, msg)
			return
		}
		writeJSON(w, res)
	}
}

func AvatarsHandler(coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		avatars, err := coord.store.ListActiveAvatars(r.Context())
		if err != nil {
			writeErr(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, avatars)
	}
}
