package service

import (
	"errors"
	"fmt"
	"strings"

	"umamii/internal/model"
	"umamii/internal/repository"
	"umamii/internal/util"
)

var (
	ErrRecommendationNotFound = errors.New("recommendation not found")
	ErrAlreadyUpvoted         = errors.New("recommendation already upvoted")
	ErrNotUpvoted             = errors.New("recommendation not upvoted")
	ErrSelfUpvote             = errors.New("cannot upvote your own recommendation")
)

type CreateRecommendationInput struct {
	RestaurantID string   `json:"restaurant_id" binding:"required"`
	Types        []string `json:"types"`
	Cuisine      []string `json:"cuisine"`
	PersonalNote string   `json:"personal_note"`
	Photos       []util.FileData
}

type RecommendationService interface {
	CreateRecommendation(userID string, input CreateRecommendationInput) (*model.Recommendation, error)
	GetRecommendation(id string) (*model.Recommendation, error)
	ListApproved(limit, offset int) ([]*model.Recommendation, error)
	ListByUser(userID string, limit, offset int) ([]*model.Recommendation, error)
	FriendFeed(userID string, limit, offset int) ([]*model.Recommendation, error)
	Upvote(recommendationID, callerID string) error
	RemoveUpvote(recommendationID, callerID string) error
	ListUpvotedIDs(userID string) ([]string, error)
	Delete(recommendationID, callerID string) error
}

type recommendationService struct {
	recommendationRepo repository.RecommendationRepository
	restaurantRepo     repository.RestaurantRepository
	profileRepo        repository.ProfileRepository
	friendshipRepo     repository.FriendshipRepository
	notifService       NotificationService
	cloudinary         *util.CloudinaryClient
}

func NewRecommendationService(
	recommendationRepo repository.RecommendationRepository,
	restaurantRepo repository.RestaurantRepository,
	profileRepo repository.ProfileRepository,
	friendshipRepo repository.FriendshipRepository,
	notifService NotificationService,
	cloudinary *util.CloudinaryClient,
) RecommendationService {
	return &recommendationService{
		recommendationRepo: recommendationRepo,
		restaurantRepo:     restaurantRepo,
		profileRepo:        profileRepo,
		friendshipRepo:     friendshipRepo,
		notifService:       notifService,
		cloudinary:         cloudinary,
	}
}

// CreateRecommendation publishes a recommendation for a known restaurant.
// Photos are uploaded first; individual upload failures drop the photo but
// do not block the recommendation.
func (s *recommendationService) CreateRecommendation(userID string, input CreateRecommendationInput) (*model.Recommendation, error) {
	if _, err := s.restaurantRepo.FindByID(input.RestaurantID); err != nil {
		return nil, ErrRestaurantNotFound
	}

	var photoURLs []string
	if len(input.Photos) > 0 && s.cloudinary != nil {
		urls, err := s.cloudinary.UploadRecommendationPhotos(input.Photos)
		if err == nil {
			photoURLs = urls
		}
	}

	recommendation := &model.Recommendation{
		RestaurantID: input.RestaurantID,
		UserID:       userID,
		PersonalNote: strings.TrimSpace(input.PersonalNote),
		IsApproved:   true,
	}
	if err := recommendation.SetTypes(input.Types); err != nil {
		return nil, fmt.Errorf("failed to encode types: %w", err)
	}
	if err := recommendation.SetCuisine(input.Cuisine); err != nil {
		return nil, fmt.Errorf("failed to encode cuisine: %w", err)
	}
	if err := recommendation.SetPhotos(photoURLs); err != nil {
		return nil, fmt.Errorf("failed to encode photos: %w", err)
	}

	if err := s.recommendationRepo.Create(recommendation); err != nil {
		return nil, fmt.Errorf("failed to create recommendation: %w", err)
	}

	go func() {
		s.profileRepo.AdjustRecommendationsCount(userID, 1)
	}()

	return s.recommendationRepo.FindByID(recommendation.ID)
}

func (s *recommendationService) GetRecommendation(id string) (*model.Recommendation, error) {
	recommendation, err := s.recommendationRepo.FindByID(id)
	if err != nil {
		return nil, ErrRecommendationNotFound
	}
	return recommendation, nil
}

func (s *recommendationService) ListApproved(limit, offset int) ([]*model.Recommendation, error) {
	limit, offset = clampPage(limit, offset)
	return s.recommendationRepo.FindApproved(limit, offset)
}

func (s *recommendationService) ListByUser(userID string, limit, offset int) ([]*model.Recommendation, error) {
	limit, offset = clampPage(limit, offset)
	return s.recommendationRepo.FindByUserID(userID, limit, offset)
}

// FriendFeed returns recommendations authored by the user's accepted
// friends and the user themselves, newest first
func (s *recommendationService) FriendFeed(userID string, limit, offset int) ([]*model.Recommendation, error) {
	limit, offset = clampPage(limit, offset)

	friendships, err := s.friendshipRepo.FindAcceptedByUserID(userID)
	if err != nil {
		return nil, err
	}

	authorIDs := make([]string, 0, len(friendships)+1)
	authorIDs = append(authorIDs, userID)
	for _, f := range friendships {
		authorIDs = append(authorIDs, f.CounterpartOf(userID))
	}

	return s.recommendationRepo.FindByUserIDs(authorIDs, limit, offset)
}

// Upvote records a single upvote per user. The author is notified async.
func (s *recommendationService) Upvote(recommendationID, callerID string) error {
	recommendation, err := s.recommendationRepo.FindByID(recommendationID)
	if err != nil {
		return ErrRecommendationNotFound
	}

	if recommendation.UserID == callerID {
		return ErrSelfUpvote
	}

	if _, err := s.recommendationRepo.FindUpvote(recommendationID, callerID); err == nil {
		return ErrAlreadyUpvoted
	}

	upvote := &model.RecommendationUpvote{
		RecommendationID: recommendationID,
		UserID:           callerID,
	}
	if err := s.recommendationRepo.CreateUpvote(upvote); err != nil {
		return fmt.Errorf("failed to create upvote: %w", err)
	}

	go func() {
		s.recommendationRepo.AdjustUpvotes(recommendationID, 1)

		voter, _ := s.profileRepo.FindByUserID(callerID)
		restaurant, _ := s.restaurantRepo.FindByID(recommendation.RestaurantID)
		if voter != nil && restaurant != nil {
			s.notifService.SendRecommendationUpvoteNotification(
				recommendation.UserID,
				callerID,
				voter.Name,
				recommendationID,
				restaurant.Name,
			)
		}
	}()

	return nil
}

func (s *recommendationService) RemoveUpvote(recommendationID, callerID string) error {
	if _, err := s.recommendationRepo.FindByID(recommendationID); err != nil {
		return ErrRecommendationNotFound
	}

	if _, err := s.recommendationRepo.FindUpvote(recommendationID, callerID); err != nil {
		return ErrNotUpvoted
	}

	if err := s.recommendationRepo.DeleteUpvote(recommendationID, callerID); err != nil {
		return fmt.Errorf("failed to remove upvote: %w", err)
	}

	go func() {
		s.recommendationRepo.AdjustUpvotes(recommendationID, -1)
	}()

	return nil
}

func (s *recommendationService) ListUpvotedIDs(userID string) ([]string, error) {
	return s.recommendationRepo.FindUpvotedIDsByUserID(userID)
}

// Delete removes a recommendation. Author only.
func (s *recommendationService) Delete(recommendationID, callerID string) error {
	recommendation, err := s.recommendationRepo.FindByID(recommendationID)
	if err != nil {
		return ErrRecommendationNotFound
	}

	if recommendation.UserID != callerID {
		return ErrNotAuthorized
	}

	if err := s.recommendationRepo.Delete(recommendationID); err != nil {
		return fmt.Errorf("failed to delete recommendation: %w", err)
	}

	go func() {
		s.profileRepo.AdjustRecommendationsCount(recommendation.UserID, -1)
		s.notifService.DeleteByTargetIDAndType(recommendationID, model.NotificationTypeRecommendationUpvote)
	}()

	return nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
