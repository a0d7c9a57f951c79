package redis

import (
	"errors"
	"strings"
	"testing"

	"github.com/intellexhq/intellex-backend/internal/logger"
)

func TestAgentMessageIDDerivation(t *testing.T) {
	cases := []struct {
		jobID string
		want  string
	}{
		{jobID: "job-1a2b3c4d5e", want: "msg-agent-job-1a2b3c4d5e"},
		{jobID: "job-0000000000", want: "msg-agent-job-0000000000"},
	}
	for _, tc := range cases {
		if got := AgentMessageID(tc.jobID); got != tc.want {
			t.Fatalf("AgentMessageID(%q)=%q, want %q", tc.jobID, got, tc.want)
		}
	}
}

func TestAgentMessageIDIsStable(t *testing.T) {
	jobID := NewJobID()
	if AgentMessageID(jobID) != AgentMessageID(jobID) {
		t.Fatal("derivation must be deterministic for a given job id")
	}
}

func TestNewJobIDFormat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewJobID()
		if !strings.HasPrefix(id, "job-") {
			t.Fatalf("job id %q missing prefix", id)
		}
		if len(id) != len("job-")+10 {
			t.Fatalf("job id %q has wrong length", id)
		}
		if seen[id] {
			t.Fatalf("job id %q repeated", id)
		}
		seen[id] = true
	}
}

func TestNewMessageQueueUnconfigured(t *testing.T) {
	t.Setenv("REDIS_URL", "")

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}

	q, err := NewMessageQueue(log)
	if q != nil {
		t.Fatal("expected nil queue without REDIS_URL")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
