package huggingface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/budgetbot/backend/internal/core/domain"
	"github.com/budgetbot/backend/internal/infrastructure/resilience"
)

func newTestClient(url, token string) *Client {
	return New(url, token, resilience.NewExecutor(resilience.SingleAttemptConfig()))
}

func TestGenerateMissingTokenSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	for _, token := range []string{"", placeholderToken} {
		client := newTestClient(server.URL, token)
		generation := client.Generate(context.Background(), "prompt")
		if generation.Kind != domain.FailureConfig {
			t.Fatalf("token %q: expected config failure, got %q", token, generation.Kind)
		}
		if generation.Text != "I apologize, but the AI service is not properly configured. Please contact support." {
			t.Fatalf("unexpected message %q", generation.Text)
		}
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no network calls, got %d", calls.Load())
	}
}

func TestGenerateSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer hf_test" {
			t.Errorf("unexpected auth header %q", got)
		}
		var payload struct {
			Inputs     string         `json:"inputs"`
			Parameters map[string]any `json:"parameters"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if payload.Inputs != "prompt" {
			t.Errorf("unexpected inputs %q", payload.Inputs)
		}
		if payload.Parameters["max_new_tokens"] != float64(256) {
			t.Errorf("unexpected max_new_tokens %v", payload.Parameters["max_new_tokens"])
		}
		w.Write([]byte(`[{"generated_text": "  You spent a lot on food.  "}]`))
	}))
	defer server.Close()

	generation := newTestClient(server.URL, "hf_test").Generate(context.Background(), "prompt")
	if generation.Failed() {
		t.Fatalf("expected success, got %q: %q", generation.Kind, generation.Text)
	}
	if generation.Text != "You spent a lot on food." {
		t.Fatalf("expected trimmed text, got %q", generation.Text)
	}
}

func TestGenerateUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	generation := newTestClient(server.URL, "hf_bad").Generate(context.Background(), "prompt")
	if generation.Kind != domain.FailureAuth {
		t.Fatalf("expected auth failure, got %q", generation.Kind)
	}
	if generation.Text != "I apologize, but there's an authentication issue with the AI service. Please check the API configuration." {
		t.Fatalf("unexpected message %q", generation.Text)
	}
}

func TestGenerateForbiddenPermissionSniff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": "This token does not have Inference permissions"}`))
	}))
	defer server.Close()

	generation := newTestClient(server.URL, "hf_test").Generate(context.Background(), "prompt")
	if generation.Kind != domain.FailurePermission {
		t.Fatalf("expected permission failure, got %q", generation.Kind)
	}
}

func TestGenerateForbiddenPlain(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": "nope"}`))
	}))
	defer server.Close()

	generation := newTestClient(server.URL, "hf_test").Generate(context.Background(), "prompt")
	if generation.Kind != domain.FailureForbidden {
		t.Fatalf("expected forbidden failure, got %q", generation.Kind)
	}
}

func TestGenerateModelNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	generation := newTestClient(server.URL, "hf_test").Generate(context.Background(), "prompt")
	if generation.Kind != domain.FailureNotFound {
		t.Fatalf("expected not found failure, got %q", generation.Kind)
	}
}

func TestGenerateUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	generation := newTestClient(server.URL, "hf_test").Generate(context.Background(), "prompt")
	if generation.Kind != domain.FailureStatus {
		t.Fatalf("expected status failure, got %q", generation.Kind)
	}
	if generation.Text != "I apologize, but there was an error with the AI service (Status: 429). Please try again." {
		t.Fatalf("unexpected message %q", generation.Text)
	}
}

func TestGenerateInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer server.Close()

	generation := newTestClient(server.URL, "hf_test").Generate(context.Background(), "prompt")
	if generation.Kind != domain.FailureBadPayload {
		t.Fatalf("expected bad payload, got %q", generation.Kind)
	}
}

func TestGenerateWrongShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"generated_text": "not a list"}`))
	}))
	defer server.Close()

	generation := newTestClient(server.URL, "hf_test").Generate(context.Background(), "prompt")
	if generation.Kind != domain.FailureBadShape {
		t.Fatalf("expected bad shape, got %q", generation.Kind)
	}
}

func TestGenerateMissingGeneratedText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"something_else": "x"}]`))
	}))
	defer server.Close()

	generation := newTestClient(server.URL, "hf_test").Generate(context.Background(), "prompt")
	if generation.Kind != domain.FailureBadShape {
		t.Fatalf("expected bad shape, got %q", generation.Kind)
	}
	if generation.Text != "I apologize, but the AI service returned an unexpected response format. Please try again." {
		t.Fatalf("unexpected message %q", generation.Text)
	}
}

func TestGenerateConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	generation := newTestClient(url, "hf_test").Generate(context.Background(), "prompt")
	if generation.Kind != domain.FailureConnection {
		t.Fatalf("expected connection failure, got %q", generation.Kind)
	}
}

func TestGenerateWithoutExecutorStillClassifies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL, "hf_test", nil)
	generation := client.Generate(context.Background(), "prompt")
	if generation.Kind != domain.FailureUnavailable {
		t.Fatalf("expected unavailable failure, got %q", generation.Kind)
	}
}

func TestTokenConfigured(t *testing.T) {
	if New("http://x", placeholderToken, nil).TokenConfigured() {
		t.Fatalf("placeholder token must not count as configured")
	}
	if !New("http://x", "hf_real", nil).TokenConfigured() {
		t.Fatalf("real token must count as configured")
	}
}
