package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"umamii/internal/model"
	"umamii/internal/util"

	"gorm.io/gorm"
)

// ErrDuplicatePair is returned when an insert trips the unordered-pair
// uniqueness index. The store serializes concurrent sends for the same pair,
// the loser of the race sees this instead of a second edge.
var ErrDuplicatePair = errors.New("friendship already exists for this pair")

type FriendshipRepository interface {
	Create(friendship *model.Friendship) error
	FindByID(id string) (*model.Friendship, error)
	FindByPair(userID, otherID string) (*model.Friendship, error)
	FindByUserID(userID string) ([]*model.Friendship, error)
	FindAcceptedByUserID(userID string) ([]*model.Friendship, error)
	FindPendingByRecipientID(recipientID string) ([]*model.Friendship, error)
	FindPendingByRequesterID(requesterID string) ([]*model.Friendship, error)
	Update(friendship *model.Friendship) error
	Delete(id string) error
}

type friendshipRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	friendshipCachePrefix         = "friendship:"
	friendshipByUserCachePrefix   = "friendship:user:"
	friendshipIncomingCachePrefix = "friendship:incoming:"
	friendshipOutgoingCachePrefix = "friendship:outgoing:"
	friendshipAcceptedCachePrefix = "friendship:accepted:"
	friendshipCacheExpiration     = 15 * time.Minute
)

func NewFriendshipRepository(db *gorm.DB, redis *util.RedisClient) FriendshipRepository {
	return &friendshipRepository{
		db:    db,
		redis: redis,
	}
}

// Create inserts a new edge. A uniqueness violation on the pair index is
// mapped to ErrDuplicatePair.
func (r *friendshipRepository) Create(friendship *model.Friendship) error {
	if err := r.db.Create(friendship).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicatePair
		}
		return err
	}

	if r.redis != nil {
		r.invalidatePartyCaches(friendship.RequesterID, friendship.RecipientID)
	}

	return nil
}

// FindByID finds an edge by ID
func (r *friendshipRepository) FindByID(id string) (*model.Friendship, error) {
	if r.redis != nil {
		cached, err := r.getFromCache(friendshipCachePrefix + id)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	var friendship model.Friendship
	err := r.db.Preload("Requester").Preload("Recipient").
		Where("id = ?", id).First(&friendship).Error
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		r.cacheFriendship(&friendship)
	}

	return &friendship, nil
}

// FindByPair finds the edge between two users in either direction,
// regardless of status
func (r *friendshipRepository) FindByPair(userID, otherID string) (*model.Friendship, error) {
	var friendship model.Friendship
	err := r.db.
		Where("(requester_id = ? AND recipient_id = ?) OR (requester_id = ? AND recipient_id = ?)",
			userID, otherID, otherID, userID).
		First(&friendship).Error
	if err != nil {
		return nil, err
	}
	return &friendship, nil
}

// FindByUserID finds every edge touching a user, any status, any direction
func (r *friendshipRepository) FindByUserID(userID string) ([]*model.Friendship, error) {
	if r.redis != nil {
		cached, err := r.getListFromCache(friendshipByUserCachePrefix + userID)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	var friendships []*model.Friendship
	err := r.db.
		Where("requester_id = ? OR recipient_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&friendships).Error
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		r.cacheFriendshipList(friendshipByUserCachePrefix+userID, friendships)
	}

	return friendships, nil
}

// FindAcceptedByUserID finds accepted edges touching a user in either role
func (r *friendshipRepository) FindAcceptedByUserID(userID string) ([]*model.Friendship, error) {
	if r.redis != nil {
		cached, err := r.getListFromCache(friendshipAcceptedCachePrefix + userID)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	var friendships []*model.Friendship
	err := r.db.Preload("Requester").Preload("Recipient").
		Where("(requester_id = ? OR recipient_id = ?) AND status = ?", userID, userID, model.FriendshipStatusAccepted).
		Order("created_at DESC").
		Find(&friendships).Error
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		r.cacheFriendshipList(friendshipAcceptedCachePrefix+userID, friendships)
	}

	return friendships, nil
}

// FindPendingByRecipientID finds incoming pending requests for a user
func (r *friendshipRepository) FindPendingByRecipientID(recipientID string) ([]*model.Friendship, error) {
	if r.redis != nil {
		cached, err := r.getListFromCache(friendshipIncomingCachePrefix + recipientID)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	var friendships []*model.Friendship
	err := r.db.Preload("Requester").Preload("Recipient").
		Where("recipient_id = ? AND status = ?", recipientID, model.FriendshipStatusPending).
		Order("created_at DESC").
		Find(&friendships).Error
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		r.cacheFriendshipList(friendshipIncomingCachePrefix+recipientID, friendships)
	}

	return friendships, nil
}

// FindPendingByRequesterID finds outgoing pending requests for a user
func (r *friendshipRepository) FindPendingByRequesterID(requesterID string) ([]*model.Friendship, error) {
	if r.redis != nil {
		cached, err := r.getListFromCache(friendshipOutgoingCachePrefix + requesterID)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	var friendships []*model.Friendship
	err := r.db.Preload("Requester").Preload("Recipient").
		Where("requester_id = ? AND status = ?", requesterID, model.FriendshipStatusPending).
		Order("created_at DESC").
		Find(&friendships).Error
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		r.cacheFriendshipList(friendshipOutgoingCachePrefix+requesterID, friendships)
	}

	return friendships, nil
}

// Update updates an edge (status transitions only, direction never changes)
func (r *friendshipRepository) Update(friendship *model.Friendship) error {
	if err := r.db.Save(friendship).Error; err != nil {
		return err
	}

	if r.redis != nil {
		r.redis.Delete(friendshipCachePrefix + friendship.ID)
		r.invalidatePartyCaches(friendship.RequesterID, friendship.RecipientID)
	}

	return nil
}

// Delete removes an edge entirely. Decline and unfriend both land here,
// there is no tombstone status.
func (r *friendshipRepository) Delete(id string) error {
	// Load first for cache invalidation
	var friendship model.Friendship
	if err := r.db.Where("id = ?", id).First(&friendship).Error; err != nil {
		return err
	}

	if err := r.db.Delete(&friendship).Error; err != nil {
		return err
	}

	if r.redis != nil {
		r.redis.Delete(friendshipCachePrefix + id)
		r.invalidatePartyCaches(friendship.RequesterID, friendship.RecipientID)
	}

	return nil
}

// Cache helpers
func (r *friendshipRepository) cacheFriendship(friendship *model.Friendship) {
	if r.redis == nil {
		return
	}

	friendshipJSON, err := json.Marshal(friendship)
	if err != nil {
		return
	}

	r.redis.Set(friendshipCachePrefix+friendship.ID, string(friendshipJSON), friendshipCacheExpiration)
}

func (r *friendshipRepository) cacheFriendshipList(key string, friendships []*model.Friendship) {
	if r.redis == nil {
		return
	}

	friendshipsJSON, err := json.Marshal(friendships)
	if err != nil {
		return
	}

	r.redis.Set(key, string(friendshipsJSON), friendshipCacheExpiration)
}

func (r *friendshipRepository) getFromCache(key string) (*model.Friendship, error) {
	if r.redis == nil {
		return nil, fmt.Errorf("redis not available")
	}

	cached, err := r.redis.Get(key)
	if err != nil {
		return nil, err
	}

	var friendship model.Friendship
	if err := json.Unmarshal([]byte(cached), &friendship); err != nil {
		return nil, err
	}

	return &friendship, nil
}

func (r *friendshipRepository) getListFromCache(key string) ([]*model.Friendship, error) {
	if r.redis == nil {
		return nil, fmt.Errorf("redis not available")
	}

	cached, err := r.redis.Get(key)
	if err != nil {
		return nil, err
	}

	var friendships []*model.Friendship
	if err := json.Unmarshal([]byte(cached), &friendships); err != nil {
		return nil, err
	}

	return friendships, nil
}

// invalidatePartyCaches drops every derived-view cache for both sides of an edge
func (r *friendshipRepository) invalidatePartyCaches(requesterID, recipientID string) {
	if r.redis == nil {
		return
	}

	for _, userID := range []string{requesterID, recipientID} {
		r.redis.Delete(friendshipByUserCachePrefix + userID)
		r.redis.Delete(friendshipIncomingCachePrefix + userID)
		r.redis.Delete(friendshipOutgoingCachePrefix + userID)
		r.redis.Delete(friendshipAcceptedCachePrefix + userID)
	}
}
