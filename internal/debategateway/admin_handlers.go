package debategateway

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"debate-arena/internal/store"
)

// requireAdmin checks the shared admin key via X-Admin-Key. An empty
// configured key disables the admin surface entirely.
func requireAdmin(adminKey string, w http.ResponseWriter, r *http.Request) bool {
	if adminKey == "" {
		writeErr(w, http.StatusNotFound, "not_found")
		return false
	}
	got := r.Header.Get("X-Admin-Key")
	if subtle.ConstantTimeCompare([]byte(got), []byte(adminKey)) != 1 {
		writeErr(w, http.StatusUnauthorized, "invalid_admin_key")
		return false
	}
	return true
}

func AdminListDebatesHandler(coord *Coordinator, adminKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireAdmin(adminKey, w, r) {
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		debates, err := coord.store.ListDebates(r.Context(), limit, offset)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, "internal_error")
			return
		}
		out := make([]map[string]any, 0, len(debates))
		for _, d := range debates {
			out = append(out, map[string]any{
				"debate_id":    d.ID,
				"user_id":      d.UserID,
				"topic":        d.Topic,
				"language":     d.Language,
				"status":       d.Status,
				"round_count":  d.RoundCount,
				"max_rounds":   d.MaxRounds,
				"credits_used": d.CreditsUsed,
				"created_at":   d.CreatedAt,
			})
		}
		writeJSON(w, out)
	}
}

func AdminTopupHandler(coord *Coordinator, adminKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireAdmin(adminKey, w, r) {
			return
		}
		var req TopupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid_request")
			return
		}
		if req.UserID == "" || req.Amount <= 0 {
			writeErr(w, http.StatusBadRequest, "invalid_request")
			return
		}
		balance, err := coord.ledger.CreditTopup(r.Context(), req.UserID, "manual_topup", req.Amount)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeErr(w, http.StatusNotFound, "user_not_found")
				return
			}
			writeErr(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, TopupResponse{UserID: req.UserID, Balance: balance})
	}
}
