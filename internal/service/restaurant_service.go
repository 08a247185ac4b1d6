package service

import (
	"errors"
	"fmt"
	"strings"

	"umamii/internal/model"
	"umamii/internal/repository"

	"gorm.io/gorm"
)

var (
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrInvalidCoordinates = errors.New("latitude must be in [-90, 90] and longitude in [-180, 180]")
)

const (
	defaultNearbyRadiusKm = 5.0
	maxNearbyRadiusKm     = 50.0
)

type CreateRestaurantInput struct {
	Name          string   `json:"name" binding:"required"`
	Address       string   `json:"address" binding:"required"`
	Latitude      float64  `json:"latitude" binding:"required"`
	Longitude     float64  `json:"longitude" binding:"required"`
	Cuisine       []string `json:"cuisine"`
	Rating        *float64 `json:"rating"`
	PriceLevel    *int     `json:"price_level"`
	GooglePlaceID *string  `json:"google_place_id"`
}

type RestaurantService interface {
	CreateRestaurant(input CreateRestaurantInput) (*model.Restaurant, error)
	GetRestaurant(id string) (*model.Restaurant, error)
	ListRestaurants(limit, offset int) ([]*model.Restaurant, error)
	SearchRestaurants(keyword string, limit int) ([]*model.Restaurant, error)
	FindNearby(lat, lng, radiusKm float64, limit int) ([]*model.Restaurant, error)
}

type restaurantService struct {
	restaurantRepo repository.RestaurantRepository
}

func NewRestaurantService(restaurantRepo repository.RestaurantRepository) RestaurantService {
	return &restaurantService{restaurantRepo: restaurantRepo}
}

// CreateRestaurant registers a place. When a Google place id is supplied and
// already known, the existing row is returned instead of a duplicate.
func (s *restaurantService) CreateRestaurant(input CreateRestaurantInput) (*model.Restaurant, error) {
	if !validCoordinates(input.Latitude, input.Longitude) {
		return nil, ErrInvalidCoordinates
	}

	if input.GooglePlaceID != nil && *input.GooglePlaceID != "" {
		existing, err := s.restaurantRepo.FindByGooglePlaceID(*input.GooglePlaceID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to look up place: %w", err)
		}
	}

	restaurant := &model.Restaurant{
		Name:          strings.TrimSpace(input.Name),
		Address:       strings.TrimSpace(input.Address),
		Latitude:      input.Latitude,
		Longitude:     input.Longitude,
		Rating:        input.Rating,
		PriceLevel:    input.PriceLevel,
		GooglePlaceID: input.GooglePlaceID,
	}
	if err := restaurant.SetCuisine(input.Cuisine); err != nil {
		return nil, fmt.Errorf("failed to encode cuisine: %w", err)
	}

	if err := s.restaurantRepo.Create(restaurant); err != nil {
		return nil, fmt.Errorf("failed to create restaurant: %w", err)
	}

	return restaurant, nil
}

func (s *restaurantService) GetRestaurant(id string) (*model.Restaurant, error) {
	restaurant, err := s.restaurantRepo.FindByID(id)
	if err != nil {
		return nil, ErrRestaurantNotFound
	}
	return restaurant, nil
}

func (s *restaurantService) ListRestaurants(limit, offset int) ([]*model.Restaurant, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.restaurantRepo.FindAll(limit, offset)
}

func (s *restaurantService) SearchRestaurants(keyword string, limit int) ([]*model.Restaurant, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return []*model.Restaurant{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.restaurantRepo.Search(keyword, limit)
}

// FindNearby returns restaurants around a point, closest first. Radius is
// clamped to keep the scan bounded.
func (s *restaurantService) FindNearby(lat, lng, radiusKm float64, limit int) ([]*model.Restaurant, error) {
	if !validCoordinates(lat, lng) {
		return nil, ErrInvalidCoordinates
	}

	if radiusKm <= 0 {
		radiusKm = defaultNearbyRadiusKm
	}
	if radiusKm > maxNearbyRadiusKm {
		radiusKm = maxNearbyRadiusKm
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	return s.restaurantRepo.FindNearby(lat, lng, radiusKm, limit)
}

func validCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
