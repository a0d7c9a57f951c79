package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/intellexhq/intellex-backend/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func TestGenerateWithoutAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	c := NewClient(testLogger(t))
	got := c.Generate(context.Background(), "system", "user")
	if got != FallbackReply {
		t.Fatalf("expected fallback reply, got %q", got)
	}
}

func TestGenerateFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", srv.URL)

	c := NewClient(testLogger(t))
	got := c.Generate(context.Background(), "system", "user")
	if got != FallbackReply {
		t.Fatalf("expected fallback reply on 500, got %q", got)
	}
}

func TestGenerateParsesCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Here is a summary."}}]}`))
	}))
	defer srv.Close()

	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", srv.URL)

	c := NewClient(testLogger(t))
	got := c.Generate(context.Background(), "system", "user")
	if got != "Here is a summary." {
		t.Fatalf("unexpected completion %q", got)
	}
}
