package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/intellexhq/intellex-backend/internal/types"
)

func TestEnsurePlanSeedsThreeItems(t *testing.T) {
	log := testLogger(t)
	plans := newFakePlanRepo()
	svc := NewPlanService(log, plans)

	project := &types.ResearchProject{
		ID:    "proj-22222222",
		Title: "Battery Chemistry",
		Goal:  "Compare solid-state electrolyte candidates",
	}

	plan, err := svc.EnsurePlan(context.Background(), project)
	if err != nil {
		t.Fatalf("EnsurePlan: %v", err)
	}

	items := types.DecodePlanItems(plan.Items)
	if len(items) != 3 {
		t.Fatalf("expected 3 seeded items, got %d", len(items))
	}
	if items[0].Title != "Clarify Objective" || items[0].Status != types.PlanItemStatusInProgress {
		t.Fatalf("unexpected first item %+v", items[0])
	}
	if items[1].Status != types.PlanItemStatusPending || items[2].Status != types.PlanItemStatusPending {
		t.Fatal("later seed items must start pending")
	}

	again, err := svc.EnsurePlan(context.Background(), project)
	if err != nil {
		t.Fatalf("EnsurePlan repeat: %v", err)
	}
	if again.ID != plan.ID {
		t.Fatal("EnsurePlan must return the existing plan, not reseed")
	}
}

func TestAppendLeadTruncatesDescription(t *testing.T) {
	log := testLogger(t)
	plans := newFakePlanRepo()
	svc := NewPlanService(log, plans)

	project := &types.ResearchProject{ID: "proj-33333333", Title: "T", Goal: "G"}
	if _, err := svc.EnsurePlan(context.Background(), project); err != nil {
		t.Fatalf("EnsurePlan: %v", err)
	}

	long := strings.Repeat("x", 200)
	plan, err := svc.AppendLead(context.Background(), project.ID, long)
	if err != nil {
		t.Fatalf("AppendLead: %v", err)
	}

	items := types.DecodePlanItems(plan.Items)
	lead := items[len(items)-1]
	if lead.Title != "New Research Lead" {
		t.Fatalf("lead title %q", lead.Title)
	}
	if got := len([]rune(lead.Description)); got != 140 {
		t.Fatalf("description must truncate to 140 runes, got %d", got)
	}
	if lead.Status != types.PlanItemStatusInProgress {
		t.Fatalf("lead status %q", lead.Status)
	}
}

func TestAppendLeadPreservesExistingItems(t *testing.T) {
	log := testLogger(t)
	plans := newFakePlanRepo()
	svc := NewPlanService(log, plans)

	project := &types.ResearchProject{ID: "proj-44444444", Title: "T", Goal: "G"}
	seeded, err := svc.EnsurePlan(context.Background(), project)
	if err != nil {
		t.Fatalf("EnsurePlan: %v", err)
	}
	seededItems := types.DecodePlanItems(seeded.Items)

	plan, err := svc.AppendLead(context.Background(), project.ID, "short lead")
	if err != nil {
		t.Fatalf("AppendLead: %v", err)
	}
	items := types.DecodePlanItems(plan.Items)
	if len(items) != len(seededItems)+1 {
		t.Fatalf("expected %d items, got %d", len(seededItems)+1, len(items))
	}
	for i, item := range seededItems {
		if items[i].ID != item.ID || items[i].Status != item.Status {
			t.Fatalf("existing item %d changed: %+v vs %+v", i, items[i], item)
		}
	}
}

func TestAppendLeadWithoutPlan(t *testing.T) {
	log := testLogger(t)
	svc := NewPlanService(log, newFakePlanRepo())

	_, err := svc.AppendLead(context.Background(), "proj-nope", "lead")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
