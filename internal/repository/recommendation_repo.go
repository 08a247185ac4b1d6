package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"umamii/internal/model"
	"umamii/internal/util"

	"gorm.io/gorm"
)

type RecommendationRepository interface {
	Create(recommendation *model.Recommendation) error
	FindByID(id string) (*model.Recommendation, error)
	FindApproved(limit, offset int) ([]*model.Recommendation, error)
	FindByUserID(userID string, limit, offset int) ([]*model.Recommendation, error)
	FindByUserIDs(userIDs []string, limit, offset int) ([]*model.Recommendation, error)
	CountByUserID(userID string) (int64, error)
	Delete(id string) error

	// Upvotes
	FindUpvote(recommendationID, userID string) (*model.RecommendationUpvote, error)
	CreateUpvote(upvote *model.RecommendationUpvote) error
	DeleteUpvote(recommendationID, userID string) error
	AdjustUpvotes(recommendationID string, delta int) error
	FindUpvotedIDsByUserID(userID string) ([]string, error)
}

type recommendationRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	recommendationCachePrefix       = "recommendation:"
	recommendationByUserCachePrefix = "recommendation:user:"
	recommendationCacheExpiration   = 15 * time.Minute
)

func NewRecommendationRepository(db *gorm.DB, redis *util.RedisClient) RecommendationRepository {
	return &recommendationRepository{
		db:    db,
		redis: redis,
	}
}

func (r *recommendationRepository) Create(recommendation *model.Recommendation) error {
	if err := r.db.Create(recommendation).Error; err != nil {
		return err
	}

	if r.redis != nil {
		r.redis.Delete(recommendationByUserCachePrefix + recommendation.UserID)
	}

	return nil
}

func (r *recommendationRepository) FindByID(id string) (*model.Recommendation, error) {
	if r.redis != nil {
		cached, err := r.getFromCache(recommendationCachePrefix + id)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	var recommendation model.Recommendation
	err := r.db.Preload("Restaurant").Preload("Author").
		Where("id = ?", id).First(&recommendation).Error
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		r.cacheRecommendation(&recommendation)
	}

	return &recommendation, nil
}

// FindApproved finds approved recommendations, newest first
func (r *recommendationRepository) FindApproved(limit, offset int) ([]*model.Recommendation, error) {
	var recommendations []*model.Recommendation
	err := r.db.Preload("Restaurant").Preload("Author").
		Where("is_approved = ?", true).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&recommendations).Error
	if err != nil {
		return nil, err
	}
	return recommendations, nil
}

// FindByUserID finds a user's approved recommendations, newest first
func (r *recommendationRepository) FindByUserID(userID string, limit, offset int) ([]*model.Recommendation, error) {
	cacheKey := fmt.Sprintf("%s%s:%d:%d", recommendationByUserCachePrefix, userID, limit, offset)
	if r.redis != nil {
		cached, err := r.getListFromCache(cacheKey)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	var recommendations []*model.Recommendation
	err := r.db.Preload("Restaurant").Preload("Author").
		Where("user_id = ? AND is_approved = ?", userID, true).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&recommendations).Error
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		r.cacheRecommendationList(cacheKey, recommendations)
	}

	return recommendations, nil
}

// FindByUserIDs finds approved recommendations authored by any of the given
// users, newest first. This backs the friend feed.
func (r *recommendationRepository) FindByUserIDs(userIDs []string, limit, offset int) ([]*model.Recommendation, error) {
	if len(userIDs) == 0 {
		return []*model.Recommendation{}, nil
	}

	var recommendations []*model.Recommendation
	err := r.db.Preload("Restaurant").Preload("Author").
		Where("user_id IN ? AND is_approved = ?", userIDs, true).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&recommendations).Error
	if err != nil {
		return nil, err
	}

	return recommendations, nil
}

func (r *recommendationRepository) CountByUserID(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Recommendation{}).
		Where("user_id = ? AND is_approved = ?", userID, true).
		Count(&count).Error
	return count, err
}

func (r *recommendationRepository) Delete(id string) error {
	var recommendation model.Recommendation
	if err := r.db.Where("id = ?", id).First(&recommendation).Error; err != nil {
		return err
	}

	if err := r.db.Delete(&recommendation).Error; err != nil {
		return err
	}

	if r.redis != nil {
		r.redis.Delete(recommendationCachePrefix + id)
		r.redis.DeletePattern(recommendationByUserCachePrefix + recommendation.UserID + ":*")
	}

	return nil
}

// FindUpvote finds a user's upvote on a recommendation, if any
func (r *recommendationRepository) FindUpvote(recommendationID, userID string) (*model.RecommendationUpvote, error) {
	var upvote model.RecommendationUpvote
	err := r.db.Where("recommendation_id = ? AND user_id = ?", recommendationID, userID).
		First(&upvote).Error
	if err != nil {
		return nil, err
	}
	return &upvote, nil
}

func (r *recommendationRepository) CreateUpvote(upvote *model.RecommendationUpvote) error {
	return r.db.Create(upvote).Error
}

func (r *recommendationRepository) DeleteUpvote(recommendationID, userID string) error {
	return r.db.Where("recommendation_id = ? AND user_id = ?", recommendationID, userID).
		Delete(&model.RecommendationUpvote{}).Error
}

// AdjustUpvotes shifts the denormalized upvote counter
func (r *recommendationRepository) AdjustUpvotes(recommendationID string, delta int) error {
	if err := r.db.Model(&model.Recommendation{}).
		Where("id = ?", recommendationID).
		Update("upvotes", gorm.Expr("GREATEST(upvotes + ?, 0)", delta)).Error; err != nil {
		return err
	}

	if r.redis != nil {
		r.redis.Delete(recommendationCachePrefix + recommendationID)
	}

	return nil
}

// FindUpvotedIDsByUserID returns the ids of recommendations a user upvoted
func (r *recommendationRepository) FindUpvotedIDsByUserID(userID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&model.RecommendationUpvote{}).
		Where("user_id = ?", userID).
		Pluck("recommendation_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Cache helpers
func (r *recommendationRepository) cacheRecommendation(recommendation *model.Recommendation) {
	if r.redis == nil {
		return
	}

	recommendationJSON, err := json.Marshal(recommendation)
	if err != nil {
		return
	}

	r.redis.Set(recommendationCachePrefix+recommendation.ID, string(recommendationJSON), recommendationCacheExpiration)
}

func (r *recommendationRepository) cacheRecommendationList(key string, recommendations []*model.Recommendation) {
	if r.redis == nil {
		return
	}

	recommendationsJSON, err := json.Marshal(recommendations)
	if err != nil {
		return
	}

	r.redis.Set(key, string(recommendationsJSON), recommendationCacheExpiration)
}

func (r *recommendationRepository) getFromCache(key string) (*model.Recommendation, error) {
	if r.redis == nil {
		return nil, fmt.Errorf("redis not available")
	}

	cached, err := r.redis.Get(key)
	if err != nil {
		return nil, err
	}

	var recommendation model.Recommendation
	if err := json.Unmarshal([]byte(cached), &recommendation); err != nil {
		return nil, err
	}

	return &recommendation, nil
}

func (r *recommendationRepository) getListFromCache(key string) ([]*model.Recommendation, error) {
	if r.redis == nil {
		return nil, fmt.Errorf("redis not available")
	}

	cached, err := r.redis.Get(key)
	if err != nil {
		return nil, err
	}

	var recommendations []*model.Recommendation
	if err := json.Unmarshal([]byte(cached), &recommendations); err != nil {
		return nil, err
	}

	return recommendations, nil
}
