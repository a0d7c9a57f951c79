package types

const (
	ProjectStatusDraft     = "draft"
	ProjectStatusActive    = "active"
	ProjectStatusCompleted = "completed"
	ProjectStatusArchived  = "archived"
)

type ResearchProject struct {
	ID            string `gorm:"primaryKey" json:"id"`
	UserID        string `gorm:"index;not null" json:"userId"`
	Title         string `gorm:"not null" json:"title"`
	Goal          string `json:"goal"`
	Status        string `gorm:"not null;default:'active'" json:"status"`
	CreatedAt     int64  `gorm:"not null;autoCreateTime:false" json:"createdAt"`
	UpdatedAt     int64  `gorm:"not null;autoUpdateTime:false" json:"updatedAt"`
	LastMessageAt *int64 `json:"lastMessageAt,omitempty"`
}

func (ResearchProject) TableName() string { return "projects" }

func ValidProjectStatus(status string) bool {
	switch status {
	case ProjectStatusDraft, ProjectStatusActive, ProjectStatusCompleted, ProjectStatusArchived:
		return true
	}
	return false
}

type ProjectStats struct {
	TotalProjects     int `json:"totalProjects"`
	ActiveProjects    int `json:"activeProjects"`
	CompletedProjects int `json:"completedProjects"`
	UpdatedLastDay    int `json:"updatedLastDay"`
}

type ActivityItem struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Timestamp   int64   `json:"timestamp"`
	Meta        *string `json:"meta,omitempty"`
}
