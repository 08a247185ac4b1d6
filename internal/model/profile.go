package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Profile struct {
	ID                   string    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID               string    `gorm:"type:uuid;not null;uniqueIndex;references:users(id)" json:"user_id"`
	Name                 string    `gorm:"type:varchar(255);not null" json:"name"`
	Username             string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"username"`
	Bio                  *string   `gorm:"type:text" json:"bio,omitempty"`
	ProfilePictureURL    *string   `gorm:"type:text" json:"profile_picture_url,omitempty"`
	Preferences          string    `gorm:"type:jsonb" json:"preferences,omitempty"` // Array of food preferences stored as JSON
	FriendsCount         int       `gorm:"default:0" json:"friends_count"`
	RecommendationsCount int       `gorm:"default:0" json:"recommendations_count"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationship
	User User `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
}

// BeforeCreate hook to generate UUID
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Profile) TableName() string {
	return "profiles"
}

// GetPreferences returns Preferences as a slice of strings
func (p *Profile) GetPreferences() []string {
	if p.Preferences == "" || p.Preferences == "[]" {
		return []string{}
	}
	var prefs []string
	if err := json.Unmarshal([]byte(p.Preferences), &prefs); err != nil {
		return []string{}
	}
	return prefs
}

// SetPreferences sets Preferences from a slice of strings
func (p *Profile) SetPreferences(prefs []string) error {
	if len(prefs) == 0 {
		// Use empty JSON array instead of empty string for PostgreSQL JSONB
		p.Preferences = "[]"
		return nil
	}
	bytes, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	p.Preferences = string(bytes)
	return nil
}

// ActivityScore is the suggestion ranking proxy: recommendations + friends.
// Both counters are maintained out-of-band and may lag the source tables.
func (p *Profile) ActivityScore() int {
	return p.RecommendationsCount + p.FriendsCount
}

// MarshalJSON custom JSON marshaling to convert Preferences string to array
func (p *Profile) MarshalJSON() ([]byte, error) {
	type Alias Profile
	aux := &struct {
		Preferences []string `json:"preferences"`
		*Alias
	}{
		Preferences: p.GetPreferences(),
		Alias:       (*Alias)(p),
	}
	return json.Marshal(aux)
}
