package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"umamii/internal/service"
	"umamii/internal/util"

	"github.com/gin-gonic/gin"
)

const maxPhotoSize = 10 << 20 // 10 MB per photo

type RecommendationHandler struct {
	recommendationService service.RecommendationService
}

func NewRecommendationHandler(recommendationService service.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{
		recommendationService: recommendationService,
	}
}

// CreateRecommendation handles publishing a recommendation with optional
// photos. Multipart form: restaurant_id, personal_note, types (JSON array),
// cuisine (JSON array), photos (files).
// POST /api/v1/recommendations
func (h *RecommendationHandler) CreateRecommendation(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	input := service.CreateRecommendationInput{
		RestaurantID: c.PostForm("restaurant_id"),
		PersonalNote: c.PostForm("personal_note"),
		Types:        parseStringArrayForm(c.PostForm("types")),
		Cuisine:      parseStringArrayForm(c.PostForm("cuisine")),
	}

	if input.RestaurantID == "" {
		util.BadRequest(c, "Restaurant ID is required")
		return
	}

	form, err := c.MultipartForm()
	if err == nil && form != nil {
		for _, fileHeader := range form.File["photos"] {
			if fileHeader.Size > maxPhotoSize {
				util.BadRequest(c, "Photo too large (max 10MB)")
				return
			}

			file, err := fileHeader.Open()
			if err != nil {
				continue
			}

			fileData, err := util.ReadFileFromReader(file, fileHeader.Filename)
			file.Close()
			if err != nil {
				continue
			}

			input.Photos = append(input.Photos, *fileData)
		}
	}

	recommendation, err := h.recommendationService.CreateRecommendation(userID.(string), input)
	if err != nil {
		respondRecommendationError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusCreated, "Recommendation created successfully", gin.H{"recommendation": recommendation})
}

// GetRecommendation handles getting a recommendation by ID
// GET /api/v1/recommendations/:id
func (h *RecommendationHandler) GetRecommendation(c *gin.Context) {
	recommendationID := c.Param("id")
	if recommendationID == "" {
		util.BadRequest(c, "Recommendation ID is required")
		return
	}

	recommendation, err := h.recommendationService.GetRecommendation(recommendationID)
	if err != nil {
		util.NotFound(c, "Recommendation not found")
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Recommendation retrieved successfully", gin.H{"recommendation": recommendation})
}

// GetExplore handles listing all approved recommendations
// GET /api/v1/recommendations/explore?limit=20&offset=0
func (h *RecommendationHandler) GetExplore(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	recommendations, err := h.recommendationService.ListApproved(limit, offset)
	if err != nil {
		util.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve recommendations", nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Recommendations retrieved successfully", gin.H{"recommendations": recommendations})
}

// GetFeed handles listing recommendations from the caller's friends
// GET /api/v1/recommendations/feed?limit=20&offset=0
func (h *RecommendationHandler) GetFeed(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	recommendations, err := h.recommendationService.FriendFeed(userID.(string), limit, offset)
	if err != nil {
		util.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve feed", nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Feed retrieved successfully", gin.H{"recommendations": recommendations})
}

// GetByUser handles listing a user's recommendations
// GET /api/v1/recommendations/user/:userID?limit=20&offset=0
func (h *RecommendationHandler) GetByUser(c *gin.Context) {
	targetUserID := c.Param("userID")
	if targetUserID == "" {
		util.BadRequest(c, "User ID is required")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	recommendations, err := h.recommendationService.ListByUser(targetUserID, limit, offset)
	if err != nil {
		util.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve recommendations", nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Recommendations retrieved successfully", gin.H{"recommendations": recommendations})
}

// Upvote handles upvoting a recommendation
// POST /api/v1/recommendations/:id/upvote
func (h *RecommendationHandler) Upvote(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	recommendationID := c.Param("id")
	if recommendationID == "" {
		util.BadRequest(c, "Recommendation ID is required")
		return
	}

	if err := h.recommendationService.Upvote(recommendationID, userID.(string)); err != nil {
		respondRecommendationError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Recommendation upvoted successfully", nil)
}

// RemoveUpvote handles removing an upvote
// DELETE /api/v1/recommendations/:id/upvote
func (h *RecommendationHandler) RemoveUpvote(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	recommendationID := c.Param("id")
	if recommendationID == "" {
		util.BadRequest(c, "Recommendation ID is required")
		return
	}

	if err := h.recommendationService.RemoveUpvote(recommendationID, userID.(string)); err != nil {
		respondRecommendationError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Upvote removed successfully", nil)
}

// GetMyUpvotes handles listing ids of recommendations the caller upvoted
// GET /api/v1/recommendations/upvoted
func (h *RecommendationHandler) GetMyUpvotes(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	ids, err := h.recommendationService.ListUpvotedIDs(userID.(string))
	if err != nil {
		util.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve upvotes", nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Upvotes retrieved successfully", gin.H{"recommendation_ids": ids})
}

// DeleteRecommendation handles deleting a recommendation
// DELETE /api/v1/recommendations/:id
func (h *RecommendationHandler) DeleteRecommendation(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	recommendationID := c.Param("id")
	if recommendationID == "" {
		util.BadRequest(c, "Recommendation ID is required")
		return
	}

	if err := h.recommendationService.Delete(recommendationID, userID.(string)); err != nil {
		respondRecommendationError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Recommendation deleted successfully", nil)
}

// respondRecommendationError maps recommendation errors to HTTP statuses
func respondRecommendationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRecommendationNotFound), errors.Is(err, service.ErrRestaurantNotFound):
		util.NotFound(c, err.Error())
	case errors.Is(err, service.ErrAlreadyUpvoted):
		util.Conflict(c, err.Error())
	case errors.Is(err, service.ErrNotUpvoted), errors.Is(err, service.ErrSelfUpvote):
		util.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNotAuthorized):
		util.Forbidden(c, err.Error())
	default:
		util.ErrorResponse(c, http.StatusInternalServerError, "Something went wrong", nil)
	}
}

// parseStringArrayForm decodes a JSON array form field, tolerating absence
func parseStringArrayForm(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		// Fall back to treating the value as a single entry
		return []string{raw}
	}
	return out
}
