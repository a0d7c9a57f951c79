package types

import (
	"encoding/json"

	"gorm.io/datatypes"
)

const (
	PlanItemStatusPending    = "pending"
	PlanItemStatusInProgress = "in-progress"
	PlanItemStatusCompleted  = "completed"
)

// ResearchPlanItem nests recursively through SubItems. The message pipeline
// only ever appends to a plan's top-level list; it never edits or reorders
// existing items.
type ResearchPlanItem struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Status      string             `json:"status"`
	SubItems    []ResearchPlanItem `json:"subItems,omitempty"`
}

type ResearchPlan struct {
	ID        string         `gorm:"primaryKey" json:"id"`
	ProjectID string         `gorm:"uniqueIndex;not null" json:"projectId"`
	Items     datatypes.JSON `json:"items"`
	UpdatedAt int64          `gorm:"not null;autoUpdateTime:false" json:"updatedAt"`
}

func (ResearchPlan) TableName() string { return "research_plans" }

func DecodePlanItems(raw datatypes.JSON) []ResearchPlanItem {
	if len(raw) == 0 {
		return []ResearchPlanItem{}
	}
	var items []ResearchPlanItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return []ResearchPlanItem{}
	}
	return items
}

func EncodePlanItems(items []ResearchPlanItem) (datatypes.JSON, error) {
	if items == nil {
		items = []ResearchPlanItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
