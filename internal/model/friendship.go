package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Friendship is a directed edge between two users. The direction records who
// initiated the request and never changes; acceptance flips status only.
// At most one edge exists per unordered pair (enforced by a unique index over
// LEAST/GREATEST of the two ids, see app.ensureFriendshipPairIndex).
type Friendship struct {
	ID          string    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	RequesterID string    `gorm:"type:uuid;not null;index" json:"requester_id"`
	RecipientID string    `gorm:"type:uuid;not null;index" json:"recipient_id"`
	Status      string    `gorm:"type:varchar(20);default:'pending';not null" json:"status"` // pending, accepted
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Requester Profile `gorm:"foreignKey:RequesterID;references:UserID" json:"requester,omitempty"`
	Recipient Profile `gorm:"foreignKey:RecipientID;references:UserID" json:"recipient,omitempty"`
}

// BeforeCreate hook to generate UUID
func (f *Friendship) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Friendship) TableName() string {
	return "friendships"
}

// Involves reports whether userID is one of the two parties on this edge.
func (f *Friendship) Involves(userID string) bool {
	return f.RequesterID == userID || f.RecipientID == userID
}

// CounterpartOf returns the user on the other side of the edge relative to
// userID, regardless of direction. Every derived view resolves "the other
// side" through this one helper; returns "" if userID is not on the edge.
func (f *Friendship) CounterpartOf(userID string) string {
	switch userID {
	case f.RequesterID:
		return f.RecipientID
	case f.RecipientID:
		return f.RequesterID
	default:
		return ""
	}
}

// Friendship status constants
const (
	FriendshipStatusPending  = "pending"
	FriendshipStatusAccepted = "accepted"
)

// Relation values between two users as seen from the first user's side.
// Exactly one holds at any time, given the pair uniqueness invariant.
const (
	RelationNone            = "none"
	RelationFriend          = "friend"
	RelationPendingSent     = "pending_sent"
	RelationPendingReceived = "pending_received"
)
