package types

const (
	ShareAccessViewer = "viewer"
	ShareAccessEditor = "editor"
)

type ProjectShare struct {
	ID        string `gorm:"primaryKey" json:"id"`
	ProjectID string `gorm:"index;not null" json:"projectId"`
	Email     string `gorm:"not null" json:"email"`
	Access    string `gorm:"not null;default:'viewer'" json:"access"`
	InvitedAt int64  `gorm:"not null" json:"invitedAt"`
}

func (ProjectShare) TableName() string { return "project_shares" }
