package suggest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newClient(baseURL string) *Client {
	return New(baseURL, 200*time.Millisecond, zerolog.Nop())
}

func TestGetSuggestionsWrappedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/suggestions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("context"); got != "landing page" {
			t.Errorf("unexpected context: %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"presets": []map[string]any{
				{"id": 42, "name": "Remote", "category": "business"},
			},
		})
	}))
	defer srv.Close()

	got := newClient(srv.URL).GetSuggestions(context.Background(), "landing page")
	if len(got) != 1 || got[0].Name != "Remote" {
		t.Fatalf("unexpected suggestions: %+v", got)
	}
}

func TestGetSuggestionsBareList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "name": "One"},
			{"id": 2, "name": "Two"},
		})
	}))
	defer srv.Close()

	got := newClient(srv.URL).GetSuggestions(context.Background(), "")
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(got))
	}
}

func TestGetSuggestionsFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	assertFallback(t, newClient(srv.URL).GetSuggestions(context.Background(), ""))
}

func TestGetSuggestionsFallsBackOnGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected": "shape"}`))
	}))
	defer srv.Close()

	assertFallback(t, newClient(srv.URL).GetSuggestions(context.Background(), ""))
}

func TestGetSuggestionsFallsBackOnUnreachableService(t *testing.T) {
	assertFallback(t, newClient("http://127.0.0.1:1").GetSuggestions(context.Background(), ""))
}

func assertFallback(t *testing.T, got []Suggestion) {
	t.Helper()
	if len(got) != 3 {
		t.Fatalf("expected the 3-entry fallback catalog, got %d", len(got))
	}
	names := map[string]bool{}
	for _, s := range got {
		names[s.Name] = true
		if !s.IsActive {
			t.Errorf("fallback suggestion %q should be active", s.Name)
		}
	}
	for _, want := range []string{"SaaS Modern", "Editorial Chic", "Tech Startup"} {
		if !names[want] {
			t.Errorf("fallback catalog missing %q", want)
		}
	}
}
