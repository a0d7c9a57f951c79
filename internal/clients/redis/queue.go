package redis

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/intellexhq/intellex-backend/internal/logger"
	"github.com/intellexhq/intellex-backend/internal/types"
)

// ErrUnavailable marks queue absence or connectivity failure. Callers test
// it with errors.Is and fall back to inline generation instead of failing
// the request.
var ErrUnavailable = errors.New("message queue unavailable")

const defaultQueueKey = "intellex:message_jobs"

// MessageJob is the payload handed to the orchestrator worker. The agent
// message id is assigned at enqueue time so the callback can address the
// placeholder without any shared lookup state.
type MessageJob struct {
	JobID          string                 `json:"jobId"`
	Project        *types.ResearchProject `json:"project"`
	UserContent    string                 `json:"userContent"`
	CallbackPath   string                 `json:"callbackPath"`
	AgentMessageID string                 `json:"agentMessageId"`
}

type MessageQueue interface {
	Enqueue(ctx context.Context, job *MessageJob) error
	Close() error
}

type messageQueue struct {
	log      *logger.Logger
	rdb      *goredis.Client
	queueKey string
}

// NewJobID returns a fresh job id like "job-1a2b3c4d5e".
func NewJobID() string {
	u := uuid.New()
	return "job-" + hex.EncodeToString(u[:])[:10]
}

// AgentMessageID derives the agent message id for a job. It is a pure
// function of the job id: producer and consumer agree on message identity
// without coordinating through storage.
func AgentMessageID(jobID string) string {
	return "msg-agent-" + jobID
}

func NewMessageQueue(log *logger.Logger) (MessageQueue, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	rawURL := strings.TrimSpace(os.Getenv("REDIS_URL"))
	if rawURL == "" {
		return nil, fmt.Errorf("missing REDIS_URL: %w", ErrUnavailable)
	}

	opts, err := goredis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %v: %w", err, ErrUnavailable)
	}
	opts.DialTimeout = 5 * time.Second
	opts.WriteTimeout = 5 * time.Second

	queueKey := strings.TrimSpace(os.Getenv("ORCHESTRATOR_QUEUE_KEY"))
	if queueKey == "" {
		queueKey = defaultQueueKey
	}

	rdb := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %v: %w", err, ErrUnavailable)
	}

	return &messageQueue{
		log:      log.With("service", "RedisMessageQueue"),
		rdb:      rdb,
		queueKey: queueKey,
	}, nil
}

func (q *messageQueue) Enqueue(ctx context.Context, job *MessageJob) error {
	if q == nil || q.rdb == nil {
		return ErrUnavailable
	}
	if job == nil {
		return fmt.Errorf("job required")
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.queueKey, raw).Err(); err != nil {
		return fmt.Errorf("rpush %s: %v: %w", q.queueKey, err, ErrUnavailable)
	}
	q.log.Debug("Job enqueued", "job_id", job.JobID, "queue_key", q.queueKey)
	return nil
}

func (q *messageQueue) Close() error {
	if q == nil || q.rdb == nil {
		return nil
	}
	return q.rdb.Close()
}
