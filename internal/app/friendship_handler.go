package app

import (
	"errors"
	"net/http"
	"strconv"

	"umamii/internal/service"
	"umamii/internal/util"

	"github.com/gin-gonic/gin"
)

type FriendshipHandler struct {
	friendshipService service.FriendshipService
}

func NewFriendshipHandler(friendshipService service.FriendshipService) *FriendshipHandler {
	return &FriendshipHandler{
		friendshipService: friendshipService,
	}
}

// SendFriendRequest handles sending a friend request
// POST /api/v1/friendships/request
func (h *FriendshipHandler) SendFriendRequest(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	var req struct {
		RecipientID string `json:"recipient_id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	friendship, err := h.friendshipService.SendRequest(userID.(string), req.RecipientID)
	if err != nil {
		respondFriendshipError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusCreated, "Friend request sent successfully", gin.H{"friendship": friendship})
}

// AcceptFriendRequest handles accepting a friend request
// POST /api/v1/friendships/:id/accept
func (h *FriendshipHandler) AcceptFriendRequest(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	friendshipID := c.Param("id")
	if friendshipID == "" {
		util.BadRequest(c, "Friendship ID is required")
		return
	}

	friendship, err := h.friendshipService.AcceptRequest(friendshipID, userID.(string))
	if err != nil {
		respondFriendshipError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Friend request accepted successfully", gin.H{"friendship": friendship})
}

// DeclineFriendRequest handles declining a friend request
// POST /api/v1/friendships/:id/decline
func (h *FriendshipHandler) DeclineFriendRequest(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	friendshipID := c.Param("id")
	if friendshipID == "" {
		util.BadRequest(c, "Friendship ID is required")
		return
	}

	if err := h.friendshipService.DeclineRequest(friendshipID, userID.(string)); err != nil {
		respondFriendshipError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Friend request declined successfully", nil)
}

// RemoveFriend handles removing a friend
// DELETE /api/v1/friendships/:id
func (h *FriendshipHandler) RemoveFriend(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	friendshipID := c.Param("id")
	if friendshipID == "" {
		util.BadRequest(c, "Friendship ID is required")
		return
	}

	if err := h.friendshipService.RemoveFriend(friendshipID, userID.(string)); err != nil {
		respondFriendshipError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Friend removed successfully", nil)
}

// GetFriends handles listing accepted friends with their profiles
// GET /api/v1/friendships/friends
func (h *FriendshipHandler) GetFriends(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	friends, err := h.friendshipService.ListFriends(userID.(string))
	if err != nil {
		util.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve friends", nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Friends retrieved successfully", gin.H{"friends": friends})
}

// GetIncomingRequests handles listing pending requests received by the caller
// GET /api/v1/friendships/requests/incoming
func (h *FriendshipHandler) GetIncomingRequests(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	friendships, err := h.friendshipService.ListIncomingRequests(userID.(string))
	if err != nil {
		util.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve requests", nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Incoming requests retrieved successfully", gin.H{"friendships": friendships})
}

// GetOutgoingRequests handles listing pending requests sent by the caller
// GET /api/v1/friendships/requests/outgoing
func (h *FriendshipHandler) GetOutgoingRequests(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	friendships, err := h.friendshipService.ListOutgoingRequests(userID.(string))
	if err != nil {
		util.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve requests", nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Outgoing requests retrieved successfully", gin.H{"friendships": friendships})
}

// GetSuggestions handles listing ranked friend suggestions
// GET /api/v1/friendships/suggestions?limit=10
func (h *FriendshipHandler) GetSuggestions(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	suggestions, err := h.friendshipService.SuggestCandidates(userID.(string), limit)
	if err != nil {
		util.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve suggestions", nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Suggestions retrieved successfully", gin.H{"suggestions": suggestions})
}

// GetRelationshipStatus handles getting the relation between the caller and
// another user
// GET /api/v1/friendships/status/:userID
func (h *FriendshipHandler) GetRelationshipStatus(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	targetUserID := c.Param("userID")
	if targetUserID == "" {
		util.BadRequest(c, "User ID is required")
		return
	}

	status, err := h.friendshipService.RelationshipStatus(userID.(string), targetUserID)
	if err != nil {
		util.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve relationship status", nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Relationship status retrieved successfully", gin.H{"status": status})
}

// respondFriendshipError maps graph errors to HTTP statuses
func respondFriendshipError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSelfFriendship):
		util.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrDuplicateFriendship):
		util.Conflict(c, err.Error())
	case errors.Is(err, service.ErrFriendshipNotFound), errors.Is(err, service.ErrUserNotFound):
		util.NotFound(c, err.Error())
	case errors.Is(err, service.ErrNotAuthorized):
		util.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrInvalidState):
		util.Conflict(c, err.Error())
	default:
		util.ErrorResponse(c, http.StatusInternalServerError, "Something went wrong", nil)
	}
}
