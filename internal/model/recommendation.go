package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Recommendation struct {
	ID           string    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	RestaurantID string    `gorm:"type:uuid;not null;index;references:restaurants(id)" json:"restaurant_id"`
	UserID       string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Types        string    `gorm:"type:jsonb" json:"types,omitempty"`   // Array of recommendation types stored as JSON
	Cuisine      string    `gorm:"type:jsonb" json:"cuisine,omitempty"` // Array of cuisine tags stored as JSON
	PersonalNote string    `gorm:"type:text" json:"personal_note"`
	Photos       string    `gorm:"type:jsonb" json:"photos,omitempty"` // Array of photo URLs stored as JSON
	Upvotes      int       `gorm:"default:0" json:"upvotes"`
	IsApproved   bool      `gorm:"default:true" json:"is_approved"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Restaurant Restaurant `gorm:"foreignKey:RestaurantID;references:ID" json:"restaurant,omitempty"`
	Author     Profile    `gorm:"foreignKey:UserID;references:UserID" json:"author,omitempty"`
}

// BeforeCreate hook to generate UUID
func (r *Recommendation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Recommendation) TableName() string {
	return "recommendations"
}

// GetTypes returns Types as a slice of strings
func (r *Recommendation) GetTypes() []string {
	return unmarshalStringArray(r.Types)
}

// SetTypes sets Types from a slice of strings
func (r *Recommendation) SetTypes(types []string) error {
	s, err := marshalStringArray(types)
	if err != nil {
		return err
	}
	r.Types = s
	return nil
}

// GetPhotos returns Photos as a slice of strings
func (r *Recommendation) GetPhotos() []string {
	return unmarshalStringArray(r.Photos)
}

// SetPhotos sets Photos from a slice of strings
func (r *Recommendation) SetPhotos(photos []string) error {
	s, err := marshalStringArray(photos)
	if err != nil {
		return err
	}
	r.Photos = s
	return nil
}

// GetCuisine returns Cuisine as a slice of strings
func (r *Recommendation) GetCuisine() []string {
	return unmarshalStringArray(r.Cuisine)
}

// SetCuisine sets Cuisine from a slice of strings
func (r *Recommendation) SetCuisine(cuisine []string) error {
	s, err := marshalStringArray(cuisine)
	if err != nil {
		return err
	}
	r.Cuisine = s
	return nil
}

// MarshalJSON custom JSON marshaling to convert jsonb strings to arrays
func (r *Recommendation) MarshalJSON() ([]byte, error) {
	type Alias Recommendation
	aux := &struct {
		Types   []string `json:"types"`
		Cuisine []string `json:"cuisine"`
		Photos  []string `json:"photos"`
		*Alias
	}{
		Types:   r.GetTypes(),
		Cuisine: r.GetCuisine(),
		Photos:  r.GetPhotos(),
		Alias:   (*Alias)(r),
	}
	return json.Marshal(aux)
}

// RecommendationUpvote represents a single user's upvote on a recommendation
type RecommendationUpvote struct {
	ID               string    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	RecommendationID string    `gorm:"type:uuid;not null;index:idx_rec_upvote,unique;references:recommendations(id)" json:"recommendation_id"`
	UserID           string    `gorm:"type:uuid;not null;index:idx_rec_upvote,unique" json:"user_id"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// BeforeCreate hook to generate UUID
func (u *RecommendationUpvote) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (RecommendationUpvote) TableName() string {
	return "recommendation_upvotes"
}

func unmarshalStringArray(s string) []string {
	if s == "" || s == "[]" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return []string{}
	}
	return out
}

func marshalStringArray(in []string) (string, error) {
	if len(in) == 0 {
		// Use empty JSON array instead of empty string for PostgreSQL JSONB
		return "[]", nil
	}
	bytes, err := json.Marshal(in)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
