package app

import (
	"errors"
	"net/http"

	"umamii/internal/service"
	"umamii/internal/util"

	"github.com/gin-gonic/gin"
)

const maxAvatarSize = 5 << 20 // 5 MB

type ProfileHandler struct {
	profileService service.ProfileService
}

func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

// CreateProfile handles onboarding profile creation
// POST /api/v1/profiles
func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	var input service.CreateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	profile, err := h.profileService.CreateProfile(userID.(string), input)
	if err != nil {
		respondProfileError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusCreated, "Profile created successfully", gin.H{"profile": profile})
}

// GetMyProfile handles getting the caller's profile
// GET /api/v1/profiles/me
func (h *ProfileHandler) GetMyProfile(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	profile, err := h.profileService.GetProfile(userID.(string))
	if err != nil {
		util.NotFound(c, "Profile not found")
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Profile retrieved successfully", gin.H{"profile": profile})
}

// GetProfileByUserID handles getting a profile by user ID
// GET /api/v1/profiles/user/:userID
func (h *ProfileHandler) GetProfileByUserID(c *gin.Context) {
	targetUserID := c.Param("userID")
	if targetUserID == "" {
		util.BadRequest(c, "User ID is required")
		return
	}

	profile, err := h.profileService.GetProfile(targetUserID)
	if err != nil {
		util.NotFound(c, "Profile not found")
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Profile retrieved successfully", gin.H{"profile": profile})
}

// GetProfileByUsername handles getting a profile by username
// GET /api/v1/profiles/username/:username
func (h *ProfileHandler) GetProfileByUsername(c *gin.Context) {
	username := c.Param("username")
	if username == "" {
		util.BadRequest(c, "Username is required")
		return
	}

	profile, err := h.profileService.GetProfileByUsername(username)
	if err != nil {
		util.NotFound(c, "Profile not found")
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Profile retrieved successfully", gin.H{"profile": profile})
}

// CheckUsername handles username availability checks during onboarding
// GET /api/v1/profiles/check-username/:username
func (h *ProfileHandler) CheckUsername(c *gin.Context) {
	username := c.Param("username")
	if username == "" {
		util.BadRequest(c, "Username is required")
		return
	}

	available, err := h.profileService.CheckUsername(username)
	if err != nil && !errors.Is(err, service.ErrInvalidUsername) {
		util.ErrorResponse(c, http.StatusInternalServerError, "Failed to check username", nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Username checked", gin.H{"available": available})
}

// UpdateProfile handles partial profile updates
// PUT /api/v1/profiles/me
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	var input service.UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	profile, err := h.profileService.UpdateProfile(userID.(string), input)
	if err != nil {
		respondProfileError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Profile updated successfully", gin.H{"profile": profile})
}

// UploadAvatar handles profile picture uploads
// POST /api/v1/profiles/me/avatar
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		util.BadRequest(c, "Avatar file is required")
		return
	}

	if fileHeader.Size > maxAvatarSize {
		util.BadRequest(c, "Avatar file too large (max 5MB)")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.ErrorResponse(c, http.StatusInternalServerError, "Failed to read file", nil)
		return
	}
	defer file.Close()

	fileData, err := util.ReadFileFromReader(file, fileHeader.Filename)
	if err != nil {
		util.ErrorResponse(c, http.StatusInternalServerError, "Failed to read file", nil)
		return
	}

	profile, err := h.profileService.UploadAvatar(userID.(string), fileData.Data, fileData.Filename)
	if err != nil {
		respondProfileError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Avatar uploaded successfully", gin.H{"profile": profile})
}

// DeleteProfile handles deleting the caller's profile
// DELETE /api/v1/profiles/me
func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	if err := h.profileService.DeleteProfile(userID.(string)); err != nil {
		util.NotFound(c, "Profile not found")
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Profile deleted successfully", nil)
}

// respondProfileError maps profile errors to HTTP statuses
func respondProfileError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProfileNotFound):
		util.NotFound(c, err.Error())
	case errors.Is(err, service.ErrProfileExists), errors.Is(err, service.ErrUsernameTaken):
		util.Conflict(c, err.Error())
	case errors.Is(err, service.ErrInvalidUsername):
		util.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrUploadFailed):
		util.ErrorResponse(c, http.StatusInternalServerError, err.Error(), nil)
	default:
		util.ErrorResponse(c, http.StatusInternalServerError, "Something went wrong", nil)
	}
}
