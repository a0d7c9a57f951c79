package types

import (
	"encoding/json"

	"gorm.io/datatypes"
)

const (
	SenderTypeUser  = "user"
	SenderTypeAgent = "agent"

	// AgentSenderID is the synthetic sender id on every agent message.
	AgentSenderID = "agent-researcher"
)

const (
	ThoughtStatusThinking  = "thinking"
	ThoughtStatusCompleted = "completed"
)

// AgentThought is a descriptive audit trail of the generator's intermediate
// steps. It is displayed, never consumed programmatically.
type AgentThought struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

type ChatMessage struct {
	ID         string         `gorm:"primaryKey" json:"id"`
	ProjectID  string         `gorm:"index;not null" json:"projectId"`
	SenderID   string         `gorm:"not null" json:"senderId"`
	SenderType string         `gorm:"not null" json:"senderType"`
	Content    string         `gorm:"not null" json:"content"`
	Thoughts   datatypes.JSON `json:"thoughts,omitempty"`
	Timestamp  int64          `gorm:"index;not null" json:"timestamp"`
}

func (ChatMessage) TableName() string { return "messages" }

func DecodeThoughts(raw datatypes.JSON) []AgentThought {
	if len(raw) == 0 {
		return nil
	}
	var thoughts []AgentThought
	if err := json.Unmarshal(raw, &thoughts); err != nil {
		return nil
	}
	return thoughts
}

func EncodeThoughts(thoughts []AgentThought) (datatypes.JSON, error) {
	if len(thoughts) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(thoughts)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
