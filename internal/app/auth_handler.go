package app

import (
	"errors"
	"net/http"
	"strings"

	"umamii/internal/service"
	"umamii/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	authService service.AuthService
	jwtSecret   string
}

func NewAuthHandler(authService service.AuthService, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		jwtSecret:   jwtSecret,
	}
}

// RequestOTP handles requesting a login code
// POST /api/v1/auth/request-otp
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, bindingErrorMessage(err))
		return
	}

	if err := h.authService.RequestOTP(strings.ToLower(req.Email)); err != nil {
		util.ErrorResponse(c, http.StatusInternalServerError, "Failed to send login code", nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Login code sent", nil)
}

// VerifyOTP handles verifying a login code and issuing tokens
// POST /api/v1/auth/verify-otp
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		Code  string `json:"code" binding:"required,len=6"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, bindingErrorMessage(err))
		return
	}

	user, tokens, err := h.authService.VerifyOTP(strings.ToLower(req.Email), req.Code)
	if err != nil {
		util.Unauthorized(c, "Invalid or expired code")
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Logged in successfully", gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// RefreshToken handles trading a refresh token for a new pair
// POST /api/v1/auth/refresh-token
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, bindingErrorMessage(err))
		return
	}

	tokens, err := h.authService.RefreshTokens(req.RefreshToken)
	if err != nil {
		util.Unauthorized(c, "Invalid or expired token")
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Tokens refreshed successfully", gin.H{"tokens": tokens})
}

// GetMe handles getting the authenticated user
// GET /api/v1/auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	user, err := h.authService.GetUserByID(userID.(string))
	if err != nil {
		util.NotFound(c, "User not found")
		return
	}

	util.SuccessResponse(c, http.StatusOK, "User retrieved successfully", gin.H{"user": user})
}

// bindingErrorMessage turns validation failures into user-friendly messages
func bindingErrorMessage(err error) string {
	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		for _, fieldErr := range validationErr {
			switch fieldErr.Field() {
			case "Email":
				return "A valid email address is required"
			case "Code":
				return "The code must be 6 digits"
			case "RefreshToken":
				return "A refresh token is required"
			}
		}
	}
	return err.Error()
}

// AuthMiddleware validates the bearer token and stores the caller's identity
// in the request context
func (h *AuthHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			util.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			util.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := util.ValidateToken(parts[1], h.jwtSecret)
		if err != nil {
			util.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		if claims.TokenType != util.TokenTypeAccess {
			util.Unauthorized(c, "Invalid token type")
			c.Abort()
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("email", claims.Email)
		c.Next()
	}
}
