package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/intellexhq/intellex-backend/internal/logger"
	"github.com/intellexhq/intellex-backend/internal/services"
	"github.com/intellexhq/intellex-backend/internal/types"
)

type fakeChatService struct {
	completed []services.CompleteJobInput
	failWith  error
}

func (f *fakeChatService) SendMessage(ctx context.Context, project *types.ResearchProject, content string) (*services.SendMessageResult, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeChatService) CompleteJob(ctx context.Context, in services.CompleteJobInput) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.completed = append(f.completed, in)
	return nil
}

func (f *fakeChatService) ListMessages(ctx context.Context, projectID string) ([]*types.ChatMessage, error) {
	return nil, nil
}

func newCallbackRouter(t *testing.T, chat services.ChatService, secret string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	router := gin.New()
	handler := NewOrchestratorHandler(log, chat, secret)
	router.POST("/orchestrator/callback", handler.Callback)
	return router
}

func postCallback(router *gin.Engine, secret string, payload map[string]any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/orchestrator/callback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("x-orchestrator-secret", secret)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCallbackCompletesJob(t *testing.T) {
	chat := &fakeChatService{}
	router := newCallbackRouter(t, chat, "hook-secret")

	rec := postCallback(router, "hook-secret", map[string]any{
		"jobId":     "job-1234567890",
		"projectId": "proj-11111111",
		"response":  "All done.",
	})

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	if len(chat.completed) != 1 {
		t.Fatalf("expected 1 completion, got %d", len(chat.completed))
	}
	got := chat.completed[0]
	if got.JobID != "job-1234567890" || got.ProjectID != "proj-11111111" || got.Response != "All done." {
		t.Fatalf("unexpected completion input %+v", got)
	}
}

func TestCallbackRejectsWrongSecret(t *testing.T) {
	chat := &fakeChatService{}
	router := newCallbackRouter(t, chat, "hook-secret")

	rec := postCallback(router, "wrong", map[string]any{
		"jobId":     "job-1234567890",
		"projectId": "proj-11111111",
		"response":  "All done.",
	})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
	if len(chat.completed) != 0 {
		t.Fatal("rejected callback must not reach the service")
	}
}

func TestCallbackRejectsMissingSecret(t *testing.T) {
	chat := &fakeChatService{}
	router := newCallbackRouter(t, chat, "hook-secret")

	rec := postCallback(router, "", map[string]any{
		"jobId":     "job-1234567890",
		"projectId": "proj-11111111",
	})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
}

func TestCallbackAllowsOpenEndpointWhenUnconfigured(t *testing.T) {
	chat := &fakeChatService{}
	router := newCallbackRouter(t, chat, "")

	rec := postCallback(router, "", map[string]any{
		"jobId":     "job-1234567890",
		"projectId": "proj-11111111",
		"response":  "ok",
	})

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status %d, want 204", rec.Code)
	}
}

func TestCallbackUnknownProject(t *testing.T) {
	chat := &fakeChatService{failWith: fmt.Errorf("project proj-missing: %w", services.ErrNotFound)}
	router := newCallbackRouter(t, chat, "hook-secret")

	rec := postCallback(router, "hook-secret", map[string]any{
		"jobId":     "job-1234567890",
		"projectId": "proj-missing",
		"response":  "ok",
	})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}

func TestCallbackValidatesBody(t *testing.T) {
	chat := &fakeChatService{}
	router := newCallbackRouter(t, chat, "hook-secret")

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"missing job and message id", map[string]any{"projectId": "proj-11111111"}},
		{"missing project", map[string]any{"jobId": "job-1234567890"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postCallback(router, "hook-secret", tt.payload)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status %d, want 400", rec.Code)
			}
		})
	}
}
