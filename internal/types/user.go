package types

import (
	"encoding/json"

	"gorm.io/datatypes"
)

type User struct {
	ID          string         `gorm:"primaryKey" json:"id"`
	Email       string         `gorm:"uniqueIndex;not null" json:"email"`
	Name        string         `gorm:"not null" json:"name"`
	AvatarURL   *string        `gorm:"column:avatar_url" json:"avatarUrl,omitempty"`
	Preferences datatypes.JSON `json:"preferences"`
}

func (User) TableName() string { return "users" }

// APIKeyRecord is what preferences.apiKeys stores per provider. The
// ciphertext never leaves the server; responses carry last4/storedAt only.
type APIKeyRecord struct {
	Ciphertext string `json:"ciphertext,omitempty"`
	Last4      string `json:"last4"`
	StoredAt   int64  `json:"storedAt"`
}

type Preferences struct {
	Theme        string                  `json:"theme"`
	Title        *string                 `json:"title,omitempty"`
	Organization *string                 `json:"organization,omitempty"`
	Location     *string                 `json:"location,omitempty"`
	Bio          *string                 `json:"bio,omitempty"`
	APIKeys      map[string]APIKeyRecord `json:"apiKeys,omitempty"`
}

func DefaultPreferences() Preferences {
	return Preferences{Theme: "system"}
}

// DecodePreferences tolerates missing or malformed stored JSON and falls
// back to defaults, mirroring how rows written by older builds are read.
func DecodePreferences(raw datatypes.JSON) Preferences {
	if len(raw) == 0 {
		return DefaultPreferences()
	}
	var prefs Preferences
	if err := json.Unmarshal(raw, &prefs); err != nil {
		return DefaultPreferences()
	}
	if prefs.Theme == "" {
		prefs.Theme = "system"
	}
	return prefs
}

func EncodePreferences(prefs Preferences) (datatypes.JSON, error) {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
