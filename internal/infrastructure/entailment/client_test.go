package entailment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestEntailPostsPremiseAndHypothesis(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/entail" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload["premise"] != "document text" || payload["hypothesis"] != "category description" {
			t.Fatalf("unexpected payload: %v", payload)
		}
		_, _ = w.Write([]byte(`{"entailment":0.87}`))
	}))
	defer server.Close()

	client := New(server.URL)
	score, err := client.Entail(context.Background(), "document text", "category description")
	if err != nil {
		t.Fatalf("Entail() error = %v", err)
	}
	if score != 0.87 {
		t.Fatalf("score = %v, want 0.87", score)
	}
}

func TestEntailRejectsOutOfRangeScore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"entailment":1.7}`))
	}))
	defer server.Close()

	client := New(server.URL)
	if _, err := client.Entail(context.Background(), "p", "h"); err == nil {
		t.Fatalf("expected error for out-of-range score")
	}
}

func TestEntailIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.Entail(context.Background(), "p", "h")
	if err == nil || !strings.Contains(err.Error(), "model loading") {
		t.Fatalf("expected body in error, got %v", err)
	}
}
