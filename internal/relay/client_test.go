package relay

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"debate-arena/internal/debate"
)

func sseTestServer(t *testing.T, wantKey string, frames []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer "+wantKey {
			writeErr(w, http.StatusUnauthorized, "invalid_api_key")
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, f := range frames {
			fmt.Fprintf(w, "data: %s\n\n", f)
		}
	}))
}

func collect(t *testing.T, ch <-chan debate.StreamEvent) []debate.StreamEvent {
	t.Helper()
	var out []debate.StreamEvent
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func TestClientParsesFrames(t *testing.T) {
	srv := sseTestServer(t, "k1", []string{
		`{"content":"hel"}`,
		`{"content":"lo"}`,
		`{"usage":{"promptTokens":3,"completionTokens":2,"totalTokens":5}}`,
		`[DONE]`,
	})
	defer srv.Close()

	c := NewClient(srv.URL, "k1")
	ch, err := c.StreamChat(context.Background(), debate.ChatRequest{
		Model:    "gpt-4o-mini",
		Messages: []debate.ChatMessage{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	evs := collect(t, ch)
	if len(evs) != 4 {
		t.Fatalf("got %d events, want 4: %+v", len(evs), evs)
	}
	if evs[0].Delta != "hel" || evs[1].Delta != "lo" {
		t.Fatalf("deltas = %q, %q", evs[0].Delta, evs[1].Delta)
	}
	if evs[2].Usage == nil || evs[2].Usage.TotalTokens != 5 {
		t.Fatalf("usage = %+v", evs[2].Usage)
	}
	if !evs[3].Done {
		t.Fatalf("last event not Done: %+v", evs[3])
	}
}

func TestClientSurfacesErrorFrame(t *testing.T) {
	srv := sseTestServer(t, "k1", []string{
		`{"content":"partial"}`,
		`{"error":"rate_limited"}`,
		`[DONE]`,
	})
	defer srv.Close()

	c := NewClient(srv.URL, "k1")
	ch, err := c.StreamChat(context.Background(), debate.ChatRequest{
		Model:    "gpt-4o-mini",
		Messages: []debate.ChatMessage{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	evs := collect(t, ch)
	last := evs[len(evs)-1]
	if last.Err == nil || last.Err.Error() != "rate_limited" {
		t.Fatalf("last event = %+v, want rate_limited error", last)
	}
}

func TestClientRejectedAuth(t *testing.T) {
	srv := sseTestServer(t, "k1", nil)
	defer srv.Close()

	c := NewClient(srv.URL, "wrong")
	_, err := c.StreamChat(context.Background(), debate.ChatRequest{
		Model:    "gpt-4o-mini",
		Messages: []debate.ChatMessage{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error for rejected key")
	}
}
