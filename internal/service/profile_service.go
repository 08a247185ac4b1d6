package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"umamii/internal/model"
	"umamii/internal/repository"
	"umamii/internal/util"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists for this user")
	ErrUsernameTaken   = errors.New("username is already taken")
	ErrInvalidUsername = errors.New("username must be 3-30 characters, lowercase letters, digits and underscores")
	ErrUploadFailed    = errors.New("failed to upload image")
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

type CreateProfileInput struct {
	Name        string   `json:"name" binding:"required"`
	Username    string   `json:"username" binding:"required"`
	Bio         *string  `json:"bio"`
	Preferences []string `json:"preferences"`
}

type UpdateProfileInput struct {
	Name        *string  `json:"name"`
	Username    *string  `json:"username"`
	Bio         *string  `json:"bio"`
	Preferences []string `json:"preferences"`
}

type ProfileService interface {
	CreateProfile(userID string, input CreateProfileInput) (*model.Profile, error)
	GetProfile(userID string) (*model.Profile, error)
	GetProfileByUsername(username string) (*model.Profile, error)
	CheckUsername(username string) (bool, error)
	UpdateProfile(userID string, input UpdateProfileInput) (*model.Profile, error)
	UploadAvatar(userID string, fileData []byte, filename string) (*model.Profile, error)
	SearchUsers(keyword, callerID string, limit int) ([]*model.Profile, error)
	DeleteProfile(userID string) error
}

type profileService struct {
	profileRepo repository.ProfileRepository
	cloudinary  *util.CloudinaryClient
}

func NewProfileService(profileRepo repository.ProfileRepository, cloudinary *util.CloudinaryClient) ProfileService {
	return &profileService{
		profileRepo: profileRepo,
		cloudinary:  cloudinary,
	}
}

// CreateProfile completes onboarding after the first login. One profile per
// user, usernames are globally unique and normalized to lowercase.
func (s *profileService) CreateProfile(userID string, input CreateProfileInput) (*model.Profile, error) {
	if _, err := s.profileRepo.FindByUserID(userID); err == nil {
		return nil, ErrProfileExists
	}

	username := strings.ToLower(strings.TrimSpace(input.Username))
	if !usernamePattern.MatchString(username) {
		return nil, ErrInvalidUsername
	}

	taken, err := s.profileRepo.UsernameExists(username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	profile := &model.Profile{
		UserID:   userID,
		Name:     strings.TrimSpace(input.Name),
		Username: username,
		Bio:      input.Bio,
	}
	if err := profile.SetPreferences(input.Preferences); err != nil {
		return nil, fmt.Errorf("failed to encode preferences: %w", err)
	}

	if err := s.profileRepo.Create(profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return profile, nil
}

func (s *profileService) GetProfile(userID string) (*model.Profile, error) {
	profile, err := s.profileRepo.FindByUserID(userID)
	if err != nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (s *profileService) GetProfileByUsername(username string) (*model.Profile, error) {
	profile, err := s.profileRepo.FindByUsername(strings.ToLower(username))
	if err != nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// CheckUsername reports whether the username is valid and still free.
func (s *profileService) CheckUsername(username string) (bool, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if !usernamePattern.MatchString(username) {
		return false, ErrInvalidUsername
	}

	taken, err := s.profileRepo.UsernameExists(username)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return !taken, nil
}

// UpdateProfile applies partial updates. Nil fields are left untouched; a nil
// Preferences slice means "no change" while an empty one clears the list.
func (s *profileService) UpdateProfile(userID string, input UpdateProfileInput) (*model.Profile, error) {
	profile, err := s.profileRepo.FindByUserID(userID)
	if err != nil {
		return nil, ErrProfileNotFound
	}

	if input.Name != nil {
		profile.Name = strings.TrimSpace(*input.Name)
	}

	if input.Username != nil {
		username := strings.ToLower(strings.TrimSpace(*input.Username))
		if username != profile.Username {
			if !usernamePattern.MatchString(username) {
				return nil, ErrInvalidUsername
			}
			taken, err := s.profileRepo.UsernameExists(username)
			if err != nil {
				return nil, fmt.Errorf("failed to check username: %w", err)
			}
			if taken {
				return nil, ErrUsernameTaken
			}
			profile.Username = username
		}
	}

	if input.Bio != nil {
		profile.Bio = input.Bio
	}

	if input.Preferences != nil {
		if err := profile.SetPreferences(input.Preferences); err != nil {
			return nil, fmt.Errorf("failed to encode preferences: %w", err)
		}
	}

	if err := s.profileRepo.Update(profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return profile, nil
}

// UploadAvatar pushes the image to Cloudinary and stores the delivery URL.
// The public id is derived from the user so a new avatar replaces the old one.
func (s *profileService) UploadAvatar(userID string, fileData []byte, filename string) (*model.Profile, error) {
	profile, err := s.profileRepo.FindByUserID(userID)
	if err != nil {
		return nil, ErrProfileNotFound
	}

	if s.cloudinary == nil {
		return nil, ErrUploadFailed
	}

	url, err := s.cloudinary.UploadAvatar(fileData, filename, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	profile.ProfilePictureURL = &url
	if err := s.profileRepo.Update(profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return profile, nil
}

func (s *profileService) SearchUsers(keyword, callerID string, limit int) ([]*model.Profile, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return []*model.Profile{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.profileRepo.Search(keyword, callerID, limit)
}

func (s *profileService) DeleteProfile(userID string) error {
	if err := s.profileRepo.DeleteByUserID(userID); err != nil {
		return ErrProfileNotFound
	}
	return nil
}
