package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Restaurant struct {
	ID            string    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name          string    `gorm:"type:varchar(255);not null;index" json:"name"`
	Address       string    `gorm:"type:text;not null" json:"address"`
	Latitude      float64   `gorm:"type:double precision;not null" json:"latitude"`
	Longitude     float64   `gorm:"type:double precision;not null" json:"longitude"`
	Cuisine       string    `gorm:"type:jsonb" json:"cuisine,omitempty"` // Array of cuisine tags stored as JSON
	Rating        *float64  `gorm:"type:double precision" json:"rating,omitempty"`
	PriceLevel    *int      `gorm:"type:int" json:"price_level,omitempty"`
	GooglePlaceID *string   `gorm:"type:varchar(255);uniqueIndex" json:"google_place_id,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// DistanceKm is only populated by nearby queries, never persisted
	DistanceKm *float64 `gorm:"-" json:"distance_km,omitempty"`
}

// BeforeCreate hook to generate UUID
func (r *Restaurant) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Restaurant) TableName() string {
	return "restaurants"
}

// GetCuisine returns Cuisine as a slice of strings
func (r *Restaurant) GetCuisine() []string {
	if r.Cuisine == "" || r.Cuisine == "[]" {
		return []string{}
	}
	var cuisine []string
	if err := json.Unmarshal([]byte(r.Cuisine), &cuisine); err != nil {
		return []string{}
	}
	return cuisine
}

// SetCuisine sets Cuisine from a slice of strings
func (r *Restaurant) SetCuisine(cuisine []string) error {
	if len(cuisine) == 0 {
		r.Cuisine = "[]"
		return nil
	}
	bytes, err := json.Marshal(cuisine)
	if err != nil {
		return err
	}
	r.Cuisine = string(bytes)
	return nil
}

// MarshalJSON custom JSON marshaling to convert Cuisine string to array
func (r *Restaurant) MarshalJSON() ([]byte, error) {
	type Alias Restaurant
	aux := &struct {
		Cuisine []string `json:"cuisine"`
		*Alias
	}{
		Cuisine: r.GetCuisine(),
		Alias:   (*Alias)(r),
	}
	return json.Marshal(aux)
}
