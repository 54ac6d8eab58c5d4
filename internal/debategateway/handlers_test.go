package debategateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"debate-arena/internal/debate"
	"debate-arena/internal/ledger"
	"debate-arena/internal/testutil"
)

func testRouter(coord *Coordinator, adminKey string) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/api/debates", CreateDebateHandler(coord))
	r.Get("/api/debates/active", ActiveDebateHandler(coord))
	r.Get("/api/debates/{debate_id}/state", StateHandler(coord))
	r.Get("/api/debates/{debate_id}/events", EventsSSEHandler(coord))
	r.Post("/api/debates/{debate_id}/pause", PauseHandler(coord))
	r.Post("/api/debates/{debate_id}/resume", ResumeHandler(coord))
	r.Post("/api/debates/{debate_id}/hand", HandHandler(coord))
	r.Post("/api/debates/{debate_id}/messages", SubmitMessageHandler(coord))
	r.Delete("/api/debates/{debate_id}", DeleteDebateHandler(coord))
	r.Get("/api/avatars", AvatarsHandler(coord))
	r.Get("/api/admin/debates", AdminListDebatesHandler(coord, adminKey))
	r.Post("/api/admin/topup", AdminTopupHandler(coord, adminKey))
	return r
}

func doJSON(t *testing.T, router *chi.Mux, method, path, apiKey string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestDebateHandlersFlow(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	seedRoster(t, st)
	seedUser(t, st, "key-http", 50)

	coord := NewCoordinator(st, ledger.New(st), fakeStreamer{}, testDebateConfig())
	router := testRouter(coord, "admin-secret")

	// Unauthenticated and unauthorized calls bounce.
	if w := doJSON(t, router, http.MethodPost, "/api/debates", "", CreateDebateRequest{Topic: "x"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("no auth: %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodPost, "/api/debates", "bogus", CreateDebateRequest{Topic: "x"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad key: %d", w.Code)
	}

	w := doJSON(t, router, http.MethodPost, "/api/debates", "key-http", CreateDebateRequest{Topic: "cats", MaxRounds: 50})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var created CreateDebateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create: %v", err)
	}

	if w := doJSON(t, router, http.MethodGet, "/api/debates/"+created.DebateID+"/state", "key-http", nil); w.Code != http.StatusOK {
		t.Fatalf("state: %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/api/debates/active", "key-http", nil); w.Code != http.StatusOK {
		t.Fatalf("active: %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/api/avatars", "key-http", nil); w.Code != http.StatusOK {
		t.Fatalf("avatars: %d", w.Code)
	}

	if w := doJSON(t, router, http.MethodPost, "/api/debates/"+created.DebateID+"/pause", "key-http", nil); w.Code != http.StatusOK {
		t.Fatalf("pause: %d %s", w.Code, w.Body.String())
	}
	// A second pause is a state conflict.
	if w := doJSON(t, router, http.MethodPost, "/api/debates/"+created.DebateID+"/pause", "key-http", nil); w.Code != http.StatusConflict {
		t.Fatalf("double pause: %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodPost, "/api/debates/"+created.DebateID+"/resume", "key-http", nil); w.Code != http.StatusOK {
		t.Fatalf("resume: %d", w.Code)
	}

	if w := doJSON(t, router, http.MethodPost, "/api/debates/"+created.DebateID+"/hand", "key-http", HandRequest{Raised: true}); w.Code != http.StatusOK {
		t.Fatalf("hand: %d", w.Code)
	}
	// Speaking out of turn is rejected until the turn actually arrives.
	w = doJSON(t, router, http.MethodPost, "/api/debates/"+created.DebateID+"/messages", "key-http", MessageRequest{Content: "hello"})
	if w.Code != http.StatusOK && w.Code != http.StatusConflict {
		t.Fatalf("message: %d %s", w.Code, w.Body.String())
	}

	if w := doJSON(t, router, http.MethodDelete, "/api/debates/"+created.DebateID, "key-http", nil); w.Code != http.StatusOK {
		t.Fatalf("delete: %d", w.Code)
	}
	// After reset the live session is gone; state falls back to the record.
	w = doJSON(t, router, http.MethodGet, "/api/debates/"+created.DebateID+"/state", "key-http", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("state after delete: %d", w.Code)
	}
	var state StateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Status != debate.StatusFinished {
		t.Fatalf("status after delete = %s, want finished", state.Status)
	}
}

func TestHumanTurnOverHTTP(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	seedRoster(t, st)
	user := seedUser(t, st, "key-human", 50)

	cfg := testDebateConfig()
	cfg.TurnPause = 100 * time.Millisecond
	coord := NewCoordinator(st, ledger.New(st), fakeStreamer{}, cfg)
	router := testRouter(coord, "")

	w := doJSON(t, router, http.MethodPost, "/api/debates", "key-human", CreateDebateRequest{Topic: "floor time", MaxRounds: 10})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var created CreateDebateResponse
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	if w := doJSON(t, router, http.MethodPost, "/api/debates/"+created.DebateID+"/hand", "key-human", HandRequest{Raised: true}); w.Code != http.StatusOK {
		t.Fatalf("hand: %d", w.Code)
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatal("human turn never arrived")
		}
		state, err := coord.State(context.Background(), user, created.DebateID)
		if err != nil {
			t.Fatalf("state: %v", err)
		}
		if state.IsUserTurn {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	w = doJSON(t, router, http.MethodPost, "/api/debates/"+created.DebateID+"/messages", "key-human", MessageRequest{Content: "let me interject"})
	if w.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", w.Code, w.Body.String())
	}
	var msg debate.Message
	if err := json.Unmarshal(w.Body.Bytes(), &msg); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if msg.AgentID != debate.HumanID || msg.TokensUsed != 0 {
		t.Fatalf("human message = %+v", msg)
	}
	_ = coord.Reset(context.Background(), user, created.DebateID)
}

func TestAdminEndpoints(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	seedRoster(t, st)
	user := seedUser(t, st, "key-admin-test", 10)

	coord := NewCoordinator(st, ledger.New(st), fakeStreamer{}, testDebateConfig())
	router := testRouter(coord, "admin-secret")

	req := httptest.NewRequest(http.MethodGet, "/api/admin/debates", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no admin key: %d", w.Code)
	}

	b, _ := json.Marshal(TopupRequest{UserID: user.ID, Amount: 40})
	req = httptest.NewRequest(http.MethodPost, "/api/admin/topup", bytes.NewReader(b))
	req.Header.Set("X-Admin-Key", "admin-secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("topup: %d %s", w.Code, w.Body.String())
	}
	var res TopupResponse
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Balance != 50 {
		t.Fatalf("balance = %d, want 50", res.Balance)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/debates", nil)
	req.Header.Set("X-Admin-Key", "admin-secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list debates: %d", w.Code)
	}

	// A blank configured key hides the admin surface.
	hidden := testRouter(coord, "")
	req = httptest.NewRequest(http.MethodGet, "/api/admin/debates", nil)
	req.Header.Set("X-Admin-Key", "anything")
	w = httptest.NewRecorder()
	hidden.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("disabled admin: %d", w.Code)
	}
}

func TestEventsSSEReplay(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	seedRoster(t, st)
	seedUser(t, st, "key-sse", 50)

	coord := NewCoordinator(st, ledger.New(st), fakeStreamer{}, testDebateConfig())
	router := testRouter(coord, "")

	w := doJSON(t, router, http.MethodPost, "/api/debates", "key-sse", CreateDebateRequest{Topic: "stream me", MaxRounds: 1})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var created CreateDebateResponse
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	// Let the one-round debate finish so the buffer has a full history.
	deadline := time.Now().Add(10 * time.Second)
	for coord.getDebateBuffer(created.DebateID) != nil {
		buf := coord.getDebateBuffer(created.DebateID)
		evs := buf.ReplayAfter("")
		done := false
		for _, ev := range evs {
			if ev.Event == debate.EventStatusChanged {
				done = true
			}
		}
		if done && len(evs) > 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no events produced")
		}
		time.Sleep(5 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/debates/"+created.DebateID+"/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer key-sse")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, want := range []string{"event: " + debate.EventMessageStarted, "event: " + debate.EventMessageCompleted, "id: 1"} {
		if !bytes.Contains([]byte(body), []byte(want)) {
			t.Fatalf("sse body missing %q:\n%s", want, body)
		}
	}
}
