package app

import (
	"net/http"
	"strconv"

	"umamii/internal/service"
	"umamii/internal/util"

	"github.com/gin-gonic/gin"
)

// SearchHandler serves the combined search box: users and restaurants in one
// round trip
type SearchHandler struct {
	profileService    service.ProfileService
	restaurantService service.RestaurantService
}

func NewSearchHandler(profileService service.ProfileService, restaurantService service.RestaurantService) *SearchHandler {
	return &SearchHandler{
		profileService:    profileService,
		restaurantService: restaurantService,
	}
}

// Search handles searching users and restaurants by keyword
// GET /api/v1/search?q=ramen&limit=10
func (h *SearchHandler) Search(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	keyword := c.Query("q")
	if keyword == "" {
		util.BadRequest(c, "Search query is required")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	users, err := h.profileService.SearchUsers(keyword, userID.(string), limit)
	if err != nil {
		util.ErrorResponse(c, http.StatusInternalServerError, "Failed to search users", nil)
		return
	}

	restaurants, err := h.restaurantService.SearchRestaurants(keyword, limit)
	if err != nil {
		util.ErrorResponse(c, http.StatusInternalServerError, "Failed to search restaurants", nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Search results retrieved successfully", gin.H{
		"users":       users,
		"restaurants": restaurants,
	})
}
