package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	redisclient "github.com/intellexhq/intellex-backend/internal/clients/redis"
	"github.com/intellexhq/intellex-backend/internal/logger"
	"github.com/intellexhq/intellex-backend/internal/types"
	"github.com/intellexhq/intellex-backend/internal/utils"
)

// ---- fakes ----

type fakeMessageRepo struct {
	messages map[string]*types.ChatMessage
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: map[string]*types.ChatMessage{}}
}

func (f *fakeMessageRepo) Create(ctx context.Context, tx *gorm.DB, messages []*types.ChatMessage) ([]*types.ChatMessage, error) {
	for _, msg := range messages {
		if _, exists := f.messages[msg.ID]; exists {
			return nil, fmt.Errorf("duplicate message id %s", msg.ID)
		}
		copied := *msg
		f.messages[msg.ID] = &copied
	}
	return messages, nil
}

func (f *fakeMessageRepo) Upsert(ctx context.Context, tx *gorm.DB, message *types.ChatMessage) error {
	copied := *message
	f.messages[message.ID] = &copied
	return nil
}

func (f *fakeMessageRepo) ListByProject(ctx context.Context, tx *gorm.DB, projectID string) ([]*types.ChatMessage, error) {
	var out []*types.ChatMessage
	for _, msg := range f.messages {
		if msg.ProjectID == projectID {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

func (f *fakeMessageRepo) CountByProject(ctx context.Context, tx *gorm.DB, projectID string) (int64, error) {
	var count int64
	for _, msg := range f.messages {
		if msg.ProjectID == projectID {
			count++
		}
	}
	return count, nil
}

func (f *fakeMessageRepo) DeleteByProjects(ctx context.Context, tx *gorm.DB, projectIDs []string) error {
	for id, msg := range f.messages {
		for _, pid := range projectIDs {
			if msg.ProjectID == pid {
				delete(f.messages, id)
			}
		}
	}
	return nil
}

type fakeProjectRepo struct {
	projects map[string]*types.ResearchProject
}

func newFakeProjectRepo(projects ...*types.ResearchProject) *fakeProjectRepo {
	f := &fakeProjectRepo{projects: map[string]*types.ResearchProject{}}
	for _, p := range projects {
		copied := *p
		f.projects[p.ID] = &copied
	}
	return f
}

func (f *fakeProjectRepo) Create(ctx context.Context, tx *gorm.DB, projects []*types.ResearchProject) ([]*types.ResearchProject, error) {
	for _, p := range projects {
		copied := *p
		f.projects[p.ID] = &copied
	}
	return projects, nil
}

func (f *fakeProjectRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.ResearchProject, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (f *fakeProjectRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*types.ResearchProject, error) {
	var out []*types.ResearchProject
	for _, p := range f.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt > out[j].UpdatedAt })
	return out, nil
}

func (f *fakeProjectRepo) ListIDsByUser(ctx context.Context, tx *gorm.DB, userID string) ([]string, error) {
	var ids []string
	for _, p := range f.projects {
		if p.UserID == userID {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (f *fakeProjectRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id string, updates map[string]interface{}) error {
	return nil
}

func (f *fakeProjectRepo) UpdateTimestamps(ctx context.Context, tx *gorm.DB, id string, lastMessageAt, updatedAt int64) error {
	p, ok := f.projects[id]
	if !ok {
		return fmt.Errorf("project %s missing", id)
	}
	p.LastMessageAt = &lastMessageAt
	p.UpdatedAt = updatedAt
	return nil
}

func (f *fakeProjectRepo) Delete(ctx context.Context, tx *gorm.DB, ids []string) error {
	for _, id := range ids {
		delete(f.projects, id)
	}
	return nil
}

type fakePlanRepo struct {
	plans map[string]*types.ResearchPlan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: map[string]*types.ResearchPlan{}}
}

func (f *fakePlanRepo) Create(ctx context.Context, tx *gorm.DB, plans []*types.ResearchPlan) ([]*types.ResearchPlan, error) {
	for _, plan := range plans {
		copied := *plan
		f.plans[plan.ProjectID] = &copied
	}
	return plans, nil
}

func (f *fakePlanRepo) GetByProject(ctx context.Context, tx *gorm.DB, projectID string) (*types.ResearchPlan, error) {
	plan, ok := f.plans[projectID]
	if !ok {
		return nil, nil
	}
	copied := *plan
	return &copied, nil
}

func (f *fakePlanRepo) UpdateItems(ctx context.Context, tx *gorm.DB, id string, items datatypes.JSON, updatedAt int64) error {
	for _, plan := range f.plans {
		if plan.ID == id {
			plan.Items = items
			plan.UpdatedAt = updatedAt
			return nil
		}
	}
	return fmt.Errorf("plan %s missing", id)
}

func (f *fakePlanRepo) DeleteByProjects(ctx context.Context, tx *gorm.DB, projectIDs []string) error {
	for _, pid := range projectIDs {
		delete(f.plans, pid)
	}
	return nil
}

type fakeQueue struct {
	failWith error
	jobs     []*redisclient.MessageJob
}

func (f *fakeQueue) Enqueue(ctx context.Context, job *redisclient.MessageJob) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeQueue) Close() error { return nil }

type fakeOrchestrator struct {
	reply string
}

func (f *fakeOrchestrator) ProcessMessage(ctx context.Context, project *types.ResearchProject, userContent string) (string, []types.AgentThought) {
	return f.reply, []types.AgentThought{{
		ID:        utils.NewID("th"),
		Title:     "Generating Response",
		Content:   "Synthesizing findings and formatting output.",
		Status:    types.ThoughtStatusCompleted,
		Timestamp: utils.NowMS(),
	}}
}

// ---- helpers ----

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

type chatFixture struct {
	chat     ChatService
	messages *fakeMessageRepo
	projects *fakeProjectRepo
	plans    *fakePlanRepo
	queue    *fakeQueue
	project  *types.ResearchProject
}

func newChatFixture(t *testing.T, queue *fakeQueue, withPlan bool) *chatFixture {
	t.Helper()
	log := testLogger(t)

	project := &types.ResearchProject{
		ID:        "proj-11111111",
		UserID:    "user-11111111",
		Title:     "LLM Evaluation Survey",
		Goal:      "Map the current evaluation landscape",
		Status:    types.ProjectStatusActive,
		CreatedAt: 1000,
		UpdatedAt: 1000,
	}

	messages := newFakeMessageRepo()
	projects := newFakeProjectRepo(project)
	plans := newFakePlanRepo()
	planService := NewPlanService(log, plans)
	if withPlan {
		if _, err := planService.EnsurePlan(context.Background(), project); err != nil {
			t.Fatalf("seed plan: %v", err)
		}
	}

	var q redisclient.MessageQueue
	if queue != nil {
		q = queue
	}
	chat := NewChatService(log, messages, projects, planService, &fakeOrchestrator{reply: "Here are three leads."}, q)

	return &chatFixture{
		chat:     chat,
		messages: messages,
		projects: projects,
		plans:    plans,
		queue:    queue,
		project:  project,
	}
}

// ---- tests ----

func TestSendMessageInlinePersistsExchange(t *testing.T) {
	fx := newChatFixture(t, nil, true)

	result, err := fx.chat.SendMessage(context.Background(), fx.project, "find recent papers on eval harnesses")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if result.UserMessage == nil || result.AgentMessage == nil {
		t.Fatal("result must carry both messages")
	}
	if result.UserMessage.Content != "find recent papers on eval harnesses" {
		t.Fatalf("user content %q", result.UserMessage.Content)
	}
	if result.UserMessage.SenderType != types.SenderTypeUser {
		t.Fatalf("user sender type %q", result.UserMessage.SenderType)
	}
	if result.AgentMessage.SenderType != types.SenderTypeAgent {
		t.Fatalf("agent sender type %q", result.AgentMessage.SenderType)
	}
	if result.AgentMessage.Timestamp <= result.UserMessage.Timestamp {
		t.Fatalf("agent timestamp %d must exceed user timestamp %d", result.AgentMessage.Timestamp, result.UserMessage.Timestamp)
	}
	if result.JobID != "" {
		t.Fatalf("inline path must not return a job id, got %q", result.JobID)
	}
	if result.AgentMessage.Content != "Here are three leads." {
		t.Fatalf("agent content %q", result.AgentMessage.Content)
	}

	count, _ := fx.messages.CountByProject(context.Background(), nil, fx.project.ID)
	if count != 2 {
		t.Fatalf("expected exactly 2 persisted messages, got %d", count)
	}

	stored := fx.projects.projects[fx.project.ID]
	if stored.LastMessageAt == nil || *stored.LastMessageAt != result.AgentMessage.Timestamp {
		t.Fatal("project lastMessageAt must track the agent message")
	}
}

func TestSendMessageWithoutPlanOmitsPlan(t *testing.T) {
	fx := newChatFixture(t, nil, false)

	result, err := fx.chat.SendMessage(context.Background(), fx.project, "find recent papers on X")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if result.Plan != nil {
		t.Fatal("plan must be omitted when the project has none")
	}
	if result.UserMessage.Content != "find recent papers on X" {
		t.Fatalf("user content %q", result.UserMessage.Content)
	}
	if result.AgentMessage.SenderType != types.SenderTypeAgent {
		t.Fatalf("agent sender type %q", result.AgentMessage.SenderType)
	}
}

func TestSendMessageEmptyContentRejected(t *testing.T) {
	fx := newChatFixture(t, nil, true)

	_, err := fx.chat.SendMessage(context.Background(), fx.project, "   ")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSendMessageMissingProject(t *testing.T) {
	fx := newChatFixture(t, nil, true)

	_, err := fx.chat.SendMessage(context.Background(), nil, "hello")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSendMessageQueuedReturnsPlaceholder(t *testing.T) {
	queue := &fakeQueue{}
	fx := newChatFixture(t, queue, true)

	result, err := fx.chat.SendMessage(context.Background(), fx.project, "update plan")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if result.JobID == "" {
		t.Fatal("queued path must return a job id")
	}
	if result.AgentMessageID != redisclient.AgentMessageID(result.JobID) {
		t.Fatalf("agent message id %q not derived from job id %q", result.AgentMessageID, result.JobID)
	}
	if result.AgentMessage.ID != result.AgentMessageID {
		t.Fatal("placeholder must be stored under the derived id")
	}
	if !strings.HasPrefix(result.AgentMessage.Content, "Processing (job ") {
		t.Fatalf("placeholder content %q", result.AgentMessage.Content)
	}
	if len(queue.jobs) != 1 {
		t.Fatalf("expected 1 enqueued job, got %d", len(queue.jobs))
	}
	job := queue.jobs[0]
	if job.AgentMessageID != result.AgentMessageID {
		t.Fatal("job payload must carry the pre-assigned agent message id")
	}
	if job.UserContent != "update plan" {
		t.Fatalf("job user content %q", job.UserContent)
	}

	thoughts := types.DecodeThoughts(result.AgentMessage.Thoughts)
	if len(thoughts) != 1 || thoughts[0].Title != "Queued" {
		t.Fatalf("placeholder must carry a single queued thought, got %+v", thoughts)
	}
}

func TestSendMessageQueueFailureFallsBackInline(t *testing.T) {
	queue := &fakeQueue{failWith: fmt.Errorf("dial tcp: %w", redisclient.ErrUnavailable)}
	fx := newChatFixture(t, queue, true)

	result, err := fx.chat.SendMessage(context.Background(), fx.project, "update plan")
	if err != nil {
		t.Fatalf("queue failure must not surface: %v", err)
	}
	if result.JobID != "" {
		t.Fatalf("fallback response must not include a job id, got %q", result.JobID)
	}
	if result.AgentMessage.Content != "Here are three leads." {
		t.Fatalf("fallback must use inline generation, got %q", result.AgentMessage.Content)
	}

	count, _ := fx.messages.CountByProject(context.Background(), nil, fx.project.ID)
	if count != 2 {
		t.Fatalf("expected exactly 2 persisted messages, got %d", count)
	}
}

func TestPlanAppendIsMonotonic(t *testing.T) {
	fx := newChatFixture(t, nil, true)

	before := len(types.DecodePlanItems(fx.plans.plans[fx.project.ID].Items))
	const n = 4
	for i := 0; i < n; i++ {
		if _, err := fx.chat.SendMessage(context.Background(), fx.project, fmt.Sprintf("lead %d", i)); err != nil {
			t.Fatalf("SendMessage %d: %v", i, err)
		}
	}
	after := len(types.DecodePlanItems(fx.plans.plans[fx.project.ID].Items))
	if after != before+n {
		t.Fatalf("expected %d items after %d sends, got %d", before+n, n, after)
	}
}

func TestCompleteJobUpsertsPlaceholder(t *testing.T) {
	queue := &fakeQueue{}
	fx := newChatFixture(t, queue, true)

	result, err := fx.chat.SendMessage(context.Background(), fx.project, "update plan")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	countBefore, _ := fx.messages.CountByProject(context.Background(), nil, fx.project.ID)

	err = fx.chat.CompleteJob(context.Background(), CompleteJobInput{
		JobID:     result.JobID,
		ProjectID: fx.project.ID,
		Response:  "Done.",
	})
	if err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}

	countAfter, _ := fx.messages.CountByProject(context.Background(), nil, fx.project.ID)
	if countAfter != countBefore {
		t.Fatalf("callback must not add rows: %d -> %d", countBefore, countAfter)
	}

	final := fx.messages.messages[result.AgentMessageID]
	if final == nil {
		t.Fatal("finalized message missing")
	}
	if final.Content != "Done." {
		t.Fatalf("finalized content %q", final.Content)
	}
	if final.Timestamp < result.UserMessage.Timestamp {
		t.Fatal("finalized timestamp must not precede the user message")
	}

	stored := fx.projects.projects[fx.project.ID]
	if stored.LastMessageAt == nil || *stored.LastMessageAt != final.Timestamp {
		t.Fatal("project lastMessageAt must track the callback timestamp")
	}
}

func TestCompleteJobIsIdempotent(t *testing.T) {
	queue := &fakeQueue{}
	fx := newChatFixture(t, queue, true)

	result, err := fx.chat.SendMessage(context.Background(), fx.project, "update plan")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	for _, response := range []string{"First pass.", "Second pass."} {
		err := fx.chat.CompleteJob(context.Background(), CompleteJobInput{
			JobID:     result.JobID,
			ProjectID: fx.project.ID,
			Response:  response,
		})
		if err != nil {
			t.Fatalf("CompleteJob(%q): %v", response, err)
		}
	}

	count, _ := fx.messages.CountByProject(context.Background(), nil, fx.project.ID)
	if count != 2 {
		t.Fatalf("repeat callback must not duplicate rows, got %d", count)
	}
	final := fx.messages.messages[result.AgentMessageID]
	if final.Content != "Second pass." {
		t.Fatalf("expected second call to win, got %q", final.Content)
	}
}

func TestCompleteJobUnknownProject(t *testing.T) {
	fx := newChatFixture(t, nil, true)

	err := fx.chat.CompleteJob(context.Background(), CompleteJobInput{
		JobID:     "job-ffffffffff",
		ProjectID: "proj-missing",
		Response:  "Done.",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCompleteJobWithoutPlaceholderInserts(t *testing.T) {
	fx := newChatFixture(t, nil, true)

	err := fx.chat.CompleteJob(context.Background(), CompleteJobInput{
		JobID:     "job-aaaaaaaaaa",
		ProjectID: fx.project.ID,
		Response:  "Recovered result.",
		Thoughts: []types.AgentThought{{
			ID: "th-1", Title: "Done", Content: "ok", Status: types.ThoughtStatusCompleted, Timestamp: 1,
		}},
	})
	if err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}

	msg := fx.messages.messages[redisclient.AgentMessageID("job-aaaaaaaaaa")]
	if msg == nil {
		t.Fatal("callback without placeholder must behave as a plain insert")
	}
	if msg.Content != "Recovered result." {
		t.Fatalf("inserted content %q", msg.Content)
	}
}
