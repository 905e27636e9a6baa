package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGeneratorSendsPromptVerbatim(t *testing.T) {
	var capturedPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		capturedPrompt, _ = payload["prompt"].(string)
		_, _ = w.Write([]byte(`{"response":"Category: Asylum & Refugee; Type: Affidavit"}`))
	}))
	defer server.Close()

	client := New(server.URL, "mistral", "embed")
	gen := NewGenerator(client)
	out, err := gen.Generate(context.Background(), "DOCUMENT:\nasylum declaration")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if capturedPrompt != "DOCUMENT:\nasylum declaration" {
		t.Fatalf("prompt was altered in transport: %q", capturedPrompt)
	}
	if out != "Category: Asylum & Refugee; Type: Affidavit" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestEmbedIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL, "mistral", "embed")
	embedder := NewEmbedder(client)
	_, err := embedder.Embed(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected typed status error, got %v", err)
	}
}

func TestClassifyOllamaErrorRetryableStatuses(t *testing.T) {
	retryable := classifyOllamaError(&HTTPStatusError{StatusCode: http.StatusServiceUnavailable})
	if !retryable.Retryable || !retryable.RecordFailure {
		t.Fatalf("503 must be retryable and recorded: %+v", retryable)
	}

	terminal := classifyOllamaError(&HTTPStatusError{StatusCode: http.StatusBadRequest})
	if terminal.Retryable {
		t.Fatalf("400 must not be retryable")
	}

	canceled := classifyOllamaError(context.Canceled)
	if canceled.Retryable || canceled.RecordFailure {
		t.Fatalf("cancellation must not trip the breaker: %+v", canceled)
	}
}
