package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"umamii/internal/model"
	"umamii/internal/util"

	"gorm.io/gorm"
)

type ProfileRepository interface {
	Create(profile *model.Profile) error
	FindByID(id string) (*model.Profile, error)
	FindByUserID(userID string) (*model.Profile, error)
	FindByUserIDs(userIDs []string) ([]*model.Profile, error)
	FindByUsername(username string) (*model.Profile, error)
	UsernameExists(username string) (bool, error)
	Search(keyword, excludeUserID string, limit int) ([]*model.Profile, error)
	FindAllExcept(excludeUserIDs []string) ([]*model.Profile, error)
	Update(profile *model.Profile) error
	AdjustFriendsCount(userID string, delta int) error
	AdjustRecommendationsCount(userID string, delta int) error
	DeleteByUserID(userID string) error
}

type profileRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	profileCachePrefix       = "profile:"
	profileByUserCachePrefix = "profile:user:"
	profileCacheExpiration   = 30 * time.Minute
)

func NewProfileRepository(db *gorm.DB, redis *util.RedisClient) ProfileRepository {
	return &profileRepository{
		db:    db,
		redis: redis,
	}
}

// Create creates a new profile and caches it
func (r *profileRepository) Create(profile *model.Profile) error {
	if err := r.db.Create(profile).Error; err != nil {
		return err
	}

	if r.redis != nil {
		r.cacheProfile(profile)
	}

	return nil
}

// FindByID finds a profile by ID, checking cache first
func (r *profileRepository) FindByID(id string) (*model.Profile, error) {
	if r.redis != nil {
		cached, err := r.getFromCache(profileCachePrefix + id)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	var profile model.Profile
	err := r.db.Where("id = ?", id).First(&profile).Error
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		r.cacheProfile(&profile)
	}

	return &profile, nil
}

// FindByUserID finds a profile by user ID, checking cache first
func (r *profileRepository) FindByUserID(userID string) (*model.Profile, error) {
	if r.redis != nil {
		cached, err := r.getFromCache(profileByUserCachePrefix + userID)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	var profile model.Profile
	err := r.db.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		r.cacheProfile(&profile)
	}

	return &profile, nil
}

// FindByUserIDs fetches display profiles for a set of users in one query
func (r *profileRepository) FindByUserIDs(userIDs []string) ([]*model.Profile, error) {
	if len(userIDs) == 0 {
		return []*model.Profile{}, nil
	}

	var profiles []*model.Profile
	err := r.db.Where("user_id IN ?", userIDs).Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *profileRepository) FindByUsername(username string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.Where("username = ?", username).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) UsernameExists(username string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Profile{}).Where("username = ?", username).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Search finds profiles by name or username, excluding the caller
func (r *profileRepository) Search(keyword, excludeUserID string, limit int) ([]*model.Profile, error) {
	var profiles []*model.Profile
	searchPattern := "%" + keyword + "%"

	err := r.db.Where("name ILIKE ? OR username ILIKE ?", searchPattern, searchPattern).
		Where("user_id <> ?", excludeUserID).
		Order("name ASC").
		Limit(limit).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}

	return profiles, nil
}

// FindAllExcept returns every profile whose user is not in excludeUserIDs.
// Ranking of the result is the caller's concern.
func (r *profileRepository) FindAllExcept(excludeUserIDs []string) ([]*model.Profile, error) {
	var profiles []*model.Profile
	query := r.db.Model(&model.Profile{})
	if len(excludeUserIDs) > 0 {
		query = query.Where("user_id NOT IN ?", excludeUserIDs)
	}
	if err := query.Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// Update updates a profile and refreshes cache
func (r *profileRepository) Update(profile *model.Profile) error {
	if err := r.db.Save(profile).Error; err != nil {
		return err
	}

	if r.redis != nil {
		r.invalidateCache(profile.ID, profile.UserID)
		r.cacheProfile(profile)
	}

	return nil
}

// AdjustFriendsCount shifts the denormalized friends counter. The counter is
// an eventually-consistent cache, callers must not rely on it transactionally.
func (r *profileRepository) AdjustFriendsCount(userID string, delta int) error {
	if err := r.db.Model(&model.Profile{}).
		Where("user_id = ?", userID).
		Update("friends_count", gorm.Expr("GREATEST(friends_count + ?, 0)", delta)).Error; err != nil {
		return err
	}

	if r.redis != nil {
		r.invalidateCache("", userID)
	}

	return nil
}

// AdjustRecommendationsCount shifts the denormalized recommendations counter
func (r *profileRepository) AdjustRecommendationsCount(userID string, delta int) error {
	if err := r.db.Model(&model.Profile{}).
		Where("user_id = ?", userID).
		Update("recommendations_count", gorm.Expr("GREATEST(recommendations_count + ?, 0)", delta)).Error; err != nil {
		return err
	}

	if r.redis != nil {
		r.invalidateCache("", userID)
	}

	return nil
}

// DeleteByUserID deletes a profile by user ID and invalidates cache
func (r *profileRepository) DeleteByUserID(userID string) error {
	result := r.db.Where("user_id = ?", userID).Delete(&model.Profile{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errors.New("profile not found")
	}

	if r.redis != nil {
		r.invalidateCache("", userID)
	}

	return nil
}

// Cache helpers
func (r *profileRepository) cacheProfile(profile *model.Profile) {
	if r.redis == nil {
		return
	}

	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return
	}

	r.redis.Set(profileCachePrefix+profile.ID, string(profileJSON), profileCacheExpiration)
	r.redis.Set(profileByUserCachePrefix+profile.UserID, string(profileJSON), profileCacheExpiration)
}

func (r *profileRepository) getFromCache(key string) (*model.Profile, error) {
	if r.redis == nil {
		return nil, fmt.Errorf("redis not available")
	}

	cached, err := r.redis.Get(key)
	if err != nil {
		return nil, err
	}

	var profile model.Profile
	if err := json.Unmarshal([]byte(cached), &profile); err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileRepository) invalidateCache(profileID, userID string) {
	if r.redis == nil {
		return
	}

	if profileID != "" {
		r.redis.Delete(profileCachePrefix + profileID)
	}
	if userID != "" {
		r.redis.Delete(profileByUserCachePrefix + userID)
	}
}
