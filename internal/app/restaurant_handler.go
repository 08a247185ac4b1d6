package app

import (
	"errors"
	"net/http"
	"strconv"

	"umamii/internal/service"
	"umamii/internal/util"

	"github.com/gin-gonic/gin"
)

type RestaurantHandler struct {
	restaurantService service.RestaurantService
}

func NewRestaurantHandler(restaurantService service.RestaurantService) *RestaurantHandler {
	return &RestaurantHandler{
		restaurantService: restaurantService,
	}
}

// CreateRestaurant handles registering a restaurant
// POST /api/v1/restaurants
func (h *RestaurantHandler) CreateRestaurant(c *gin.Context) {
	var input service.CreateRestaurantInput
	if err := c.ShouldBindJSON(&input); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	restaurant, err := h.restaurantService.CreateRestaurant(input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCoordinates) {
			util.BadRequest(c, err.Error())
			return
		}
		util.ErrorResponse(c, http.StatusInternalServerError, "Failed to create restaurant", nil)
		return
	}

	util.SuccessResponse(c, http.StatusCreated, "Restaurant created successfully", gin.H{"restaurant": restaurant})
}

// GetRestaurant handles getting a restaurant by ID
// GET /api/v1/restaurants/:id
func (h *RestaurantHandler) GetRestaurant(c *gin.Context) {
	restaurantID := c.Param("id")
	if restaurantID == "" {
		util.BadRequest(c, "Restaurant ID is required")
		return
	}

	restaurant, err := h.restaurantService.GetRestaurant(restaurantID)
	if err != nil {
		util.NotFound(c, "Restaurant not found")
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Restaurant retrieved successfully", gin.H{"restaurant": restaurant})
}

// GetRestaurants handles listing restaurants
// GET /api/v1/restaurants?limit=20&offset=0
func (h *RestaurantHandler) GetRestaurants(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	restaurants, err := h.restaurantService.ListRestaurants(limit, offset)
	if err != nil {
		util.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve restaurants", nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Restaurants retrieved successfully", gin.H{"restaurants": restaurants})
}

// GetNearby handles finding restaurants around a point
// GET /api/v1/restaurants/nearby?lat=..&lng=..&radius_km=5&limit=20
func (h *RestaurantHandler) GetNearby(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		util.BadRequest(c, "lat and lng query parameters are required")
		return
	}

	radiusKm, _ := strconv.ParseFloat(c.DefaultQuery("radius_km", "5"), 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	restaurants, err := h.restaurantService.FindNearby(lat, lng, radiusKm, limit)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCoordinates) {
			util.BadRequest(c, err.Error())
			return
		}
		util.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve restaurants", nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Nearby restaurants retrieved successfully", gin.H{"restaurants": restaurants})
}
