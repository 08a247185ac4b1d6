package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"umamii/internal/model"
	"umamii/internal/util"

	"gorm.io/gorm"
)

type RestaurantRepository interface {
	Create(restaurant *model.Restaurant) error
	FindByID(id string) (*model.Restaurant, error)
	FindByGooglePlaceID(placeID string) (*model.Restaurant, error)
	FindAll(limit, offset int) ([]*model.Restaurant, error)
	Search(keyword string, limit int) ([]*model.Restaurant, error)
	FindNearby(lat, lng, radiusKm float64, limit int) ([]*model.Restaurant, error)
}

type restaurantRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	restaurantCachePrefix     = "restaurant:"
	restaurantCacheExpiration = 30 * time.Minute
)

func NewRestaurantRepository(db *gorm.DB, redis *util.RedisClient) RestaurantRepository {
	return &restaurantRepository{
		db:    db,
		redis: redis,
	}
}

func (r *restaurantRepository) Create(restaurant *model.Restaurant) error {
	if err := r.db.Create(restaurant).Error; err != nil {
		return err
	}

	if r.redis != nil {
		r.cacheRestaurant(restaurant)
	}

	return nil
}

func (r *restaurantRepository) FindByID(id string) (*model.Restaurant, error) {
	if r.redis != nil {
		cached, err := r.getFromCache(restaurantCachePrefix + id)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	var restaurant model.Restaurant
	err := r.db.Where("id = ?", id).First(&restaurant).Error
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		r.cacheRestaurant(&restaurant)
	}

	return &restaurant, nil
}

func (r *restaurantRepository) FindByGooglePlaceID(placeID string) (*model.Restaurant, error) {
	var restaurant model.Restaurant
	err := r.db.Where("google_place_id = ?", placeID).First(&restaurant).Error
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (r *restaurantRepository) FindAll(limit, offset int) ([]*model.Restaurant, error) {
	var restaurants []*model.Restaurant
	err := r.db.Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&restaurants).Error
	if err != nil {
		return nil, err
	}
	return restaurants, nil
}

// Search finds restaurants by name or address
func (r *restaurantRepository) Search(keyword string, limit int) ([]*model.Restaurant, error) {
	var restaurants []*model.Restaurant
	searchPattern := "%" + keyword + "%"

	err := r.db.Where("name ILIKE ? OR address ILIKE ?", searchPattern, searchPattern).
		Limit(limit).
		Find(&restaurants).Error
	if err != nil {
		return nil, err
	}

	return restaurants, nil
}

// FindNearby returns restaurants within radiusKm of the given point, closest
// first, with distance_km populated. Haversine over plain lat/lng columns,
// 6371 is the earth radius in km.
func (r *restaurantRepository) FindNearby(lat, lng, radiusKm float64, limit int) ([]*model.Restaurant, error) {
	var restaurants []*model.Restaurant

	query := `
		SELECT *, distance_km FROM (
			SELECT *,
				6371 * 2 * ASIN(SQRT(
					POWER(SIN(RADIANS(latitude - ?) / 2), 2) +
					COS(RADIANS(?)) * COS(RADIANS(latitude)) *
					POWER(SIN(RADIANS(longitude - ?) / 2), 2)
				)) AS distance_km
			FROM restaurants
		) AS nearby
		WHERE distance_km <= ?
		ORDER BY distance_km ASC
		LIMIT ?
	`

	err := r.db.Raw(query, lat, lat, lng, radiusKm, limit).Scan(&restaurants).Error
	if err != nil {
		return nil, err
	}

	return restaurants, nil
}

// Cache helpers
func (r *restaurantRepository) cacheRestaurant(restaurant *model.Restaurant) {
	if r.redis == nil {
		return
	}

	restaurantJSON, err := json.Marshal(restaurant)
	if err != nil {
		return
	}

	r.redis.Set(restaurantCachePrefix+restaurant.ID, string(restaurantJSON), restaurantCacheExpiration)
}

func (r *restaurantRepository) getFromCache(key string) (*model.Restaurant, error) {
	if r.redis == nil {
		return nil, fmt.Errorf("redis not available")
	}

	cached, err := r.redis.Get(key)
	if err != nil {
		return nil, err
	}

	var restaurant model.Restaurant
	if err := json.Unmarshal([]byte(cached), &restaurant); err != nil {
		return nil, err
	}

	return &restaurant, nil
}
