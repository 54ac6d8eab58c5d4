package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsSSERequest(t *testing.T) {
	cases := []struct {
		path   string
		accept string
		want   bool
	}{
		{"/api/chat", "", true},
		{"/api/debates/abc/events", "", true},
		{"/api/debates", "", false},
		{"/api/avatars", "text/event-stream", true},
		{"/health", "", false},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.accept != "" {
			r.Header.Set("Accept", tc.accept)
		}
		if got := isSSERequest(r); got != tc.want {
			t.Fatalf("isSSERequest(%s, accept=%q) = %v, want %v", tc.path, tc.accept, got, tc.want)
		}
	}
}

func TestParseMaybeJSON(t *testing.T) {
	if got := parseMaybeJSON(nil); got != "" {
		t.Fatalf("nil: %v", got)
	}
	if got := parseMaybeJSON([]byte(`{"a":1}`)); got == nil {
		t.Fatal("json should parse")
	}
	if got := parseMaybeJSON([]byte("plain text")); got != "plain text" {
		t.Fatalf("plain: %v", got)
	}
}
