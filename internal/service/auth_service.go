package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"umamii/internal/config"
	"umamii/internal/model"
	"umamii/internal/repository"
	"umamii/internal/util"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidOTP      = errors.New("invalid or expired code")
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrUserNotVerified = errors.New("user has not verified their email")
)

// TokenPair is issued after a successful OTP verification or refresh
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthService implements passwordless email login. A short-lived one-time
// code is mailed to the user; verifying it yields a JWT pair. Only the bcrypt
// hash of the code is stored.
type AuthService interface {
	RequestOTP(email string) error
	VerifyOTP(email, code string) (*model.User, *TokenPair, error)
	RefreshTokens(refreshToken string) (*TokenPair, error)
	GetUserByID(userID string) (*model.User, error)
}

type authService struct {
	userRepo     repository.UserRepository
	emailService EmailService
	cfg          *config.Config
}

func NewAuthService(userRepo repository.UserRepository, emailService EmailService, cfg *config.Config) AuthService {
	return &authService{
		userRepo:     userRepo,
		emailService: emailService,
		cfg:          cfg,
	}
}

// RequestOTP creates the user on first contact, then stores a fresh code
// hash and queues the email. Requesting again before the previous code
// expires simply replaces it.
func (s *authService) RequestOTP(email string) error {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up user: %w", err)
		}
		user = &model.User{Email: email}
		if err := s.userRepo.Create(user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
	}

	code, err := generateOTPCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash code: %w", err)
	}

	expiresAt := time.Now().Add(time.Duration(s.cfg.OTPExpiryMins) * time.Minute)
	if err := s.userRepo.UpdateOTP(email, string(hash), expiresAt); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}

	return s.emailService.SendOTPEmail(email, code)
}

// VerifyOTP checks the submitted code against the stored hash. Success clears
// the code, marks the user verified and issues a token pair. Wrong email,
// wrong code and expired code all collapse to ErrInvalidOTP.
func (s *authService) VerifyOTP(email, code string) (*model.User, *TokenPair, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return nil, nil, ErrInvalidOTP
	}

	if user.OTPCodeHash == nil || user.OTPExpiresAt == nil {
		return nil, nil, ErrInvalidOTP
	}

	if time.Now().After(*user.OTPExpiresAt) {
		return nil, nil, ErrInvalidOTP
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.OTPCodeHash), []byte(code)); err != nil {
		return nil, nil, ErrInvalidOTP
	}

	if err := s.userRepo.ClearOTP(user.ID); err != nil {
		return nil, nil, fmt.Errorf("failed to clear code: %w", err)
	}

	if err := s.userRepo.UpdateLastLogin(user.ID); err != nil {
		return nil, nil, fmt.Errorf("failed to update last login: %w", err)
	}

	tokens, err := s.issueTokens(user.ID, user.Email)
	if err != nil {
		return nil, nil, err
	}

	user.IsVerified = true
	return user, tokens, nil
}

// RefreshTokens trades a valid refresh token for a fresh pair
func (s *authService) RefreshTokens(refreshToken string) (*TokenPair, error) {
	claims, err := util.ValidateToken(refreshToken, s.cfg.JWTSecret)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != util.TokenTypeRefresh {
		return nil, ErrInvalidToken
	}

	// The user must still exist
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return s.issueTokens(user.ID, user.Email)
}

func (s *authService) GetUserByID(userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *authService) issueTokens(userID, email string) (*TokenPair, error) {
	accessTTL := time.Duration(s.cfg.AccessTokenTTLMins) * time.Minute
	refreshTTL := time.Duration(s.cfg.RefreshTokenTTLHours) * time.Hour

	accessToken, err := util.GenerateToken(userID, email, util.TokenTypeAccess, s.cfg.JWTSecret, accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err := util.GenerateToken(userID, email, util.TokenTypeRefresh, s.cfg.JWTSecret, refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// generateOTPCode returns a 6-digit code with a crypto-grade source
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
