package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"debate-arena/internal/config"
	"debate-arena/internal/debategateway"
	"debate-arena/internal/ledger"
	"debate-arena/internal/testutil"
)

func TestRoutesAndErrorShapes(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	cfg := config.ServerConfig{AdminAPIKey: "admin-key", StaticDir: t.TempDir()}
	debateCfg, err := config.LoadDebate()
	if err != nil {
		t.Fatalf("load debate config: %v", err)
	}
	coord := debategateway.NewCoordinator(st, ledger.New(st), nil, debateCfg)
	router := newRouter(st, cfg, coord, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("/health: got %d", w.Code)
	}
	var health map[string]any
	if err := json.NewDecoder(w.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health["status"] != "ok" || health["timestamp"] == nil {
		t.Fatalf("health = %v", health)
	}

	// Unknown API paths return a JSON 404, not the SPA fallback.
	req = httptest.NewRequest(http.MethodGet, "/api/no/such/thing", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("/api 404: got %d", w.Code)
	}
	var errResp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode 404: %v", err)
	}
	if errResp["error"] != "not_found" {
		t.Fatalf("404 error = %q", errResp["error"])
	}

	// Mounted routes authenticate before anything else.
	req = httptest.NewRequest(http.MethodPost, "/api/debates", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("/api/debates without auth: got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("/api/chat without auth: got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/debates", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("/api/admin/debates without key: got %d", w.Code)
	}
}

func TestSeedAvatarsIdempotent(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	seedAvatars(st)
	seedAvatars(st)
	avatars, err := st.ListActiveAvatars(context.Background())
	if err != nil {
		t.Fatalf("list avatars: %v", err)
	}
	if len(avatars) != len(defaultAvatars) {
		t.Fatalf("got %d avatars, want %d", len(avatars), len(defaultAvatars))
	}
	mods := 0
	for _, a := range avatars {
		if a.IsModerator {
			mods++
		}
	}
	if mods != 1 {
		t.Fatalf("got %d moderators, want 1", mods)
	}
}
