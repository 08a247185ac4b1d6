package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"umamii/internal/model"
	"umamii/internal/repository"
	"umamii/internal/util"
)

var ErrNotificationNotFound = errors.New("notification not found")

const (
	NotificationExchange   = "umamii.notifications"
	NotificationQueue      = "notification_push_queue"
	NotificationRoutingKey = "notification.push"
)

// PushEvent is the message published per notification for real-time delivery
type PushEvent struct {
	NotificationID string `json:"notification_id"`
	UserID         string `json:"user_id"`
	Type           string `json:"type"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	TargetID       string `json:"target_id,omitempty"`
	SenderID       string `json:"sender_id,omitempty"`
}

type NotificationService interface {
	SendFriendRequestNotification(recipientID, senderID, senderName, friendshipID string) error
	SendFriendAcceptedNotification(recipientID, senderID, senderName, friendshipID string) error
	SendFriendRemovedNotification(recipientID, senderID, senderName string) error
	SendRecommendationUpvoteNotification(recipientID, senderID, senderName, recommendationID, restaurantName string) error
	DeleteByTargetIDAndType(targetID, notifType string) error

	ListNotifications(userID string, limit, offset int) ([]*model.Notification, error)
	ListUnread(userID string) ([]*model.Notification, error)
	CountUnread(userID string) (int64, error)
	MarkAsRead(notificationID, callerID string) error
	MarkAllAsRead(userID string) error
	Delete(notificationID, callerID string) error
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	rabbitClient     *util.RabbitMQClient
}

func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	rabbitClient *util.RabbitMQClient,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		rabbitClient:     rabbitClient,
	}
}

func (s *notificationService) SendFriendRequestNotification(recipientID, senderID, senderName, friendshipID string) error {
	return s.create(&model.Notification{
		UserID:   recipientID,
		SenderID: &senderID,
		Type:     model.NotificationTypeFriendRequest,
		Title:    "New friend request",
		Message:  fmt.Sprintf("%s sent you a friend request", senderName),
		TargetID: &friendshipID,
	})
}

func (s *notificationService) SendFriendAcceptedNotification(recipientID, senderID, senderName, friendshipID string) error {
	return s.create(&model.Notification{
		UserID:   recipientID,
		SenderID: &senderID,
		Type:     model.NotificationTypeFriendAccepted,
		Title:    "Friend request accepted",
		Message:  fmt.Sprintf("%s accepted your friend request", senderName),
		TargetID: &friendshipID,
	})
}

func (s *notificationService) SendFriendRemovedNotification(recipientID, senderID, senderName string) error {
	return s.create(&model.Notification{
		UserID:   recipientID,
		SenderID: &senderID,
		Type:     model.NotificationTypeFriendRemoved,
		Title:    "Friend removed",
		Message:  fmt.Sprintf("%s removed you from their friends", senderName),
	})
}

func (s *notificationService) SendRecommendationUpvoteNotification(recipientID, senderID, senderName, recommendationID, restaurantName string) error {
	return s.create(&model.Notification{
		UserID:   recipientID,
		SenderID: &senderID,
		Type:     model.NotificationTypeRecommendationUpvote,
		Title:    "New upvote",
		Message:  fmt.Sprintf("%s upvoted your recommendation for %s", senderName, restaurantName),
		TargetID: &recommendationID,
	})
}

// create persists the notification then publishes a push event. Publish
// failures are logged and swallowed, the row is the source of truth and the
// client picks it up on the next poll.
func (s *notificationService) create(notification *model.Notification) error {
	if err := s.notificationRepo.Create(notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	s.publishPushEvent(notification)
	return nil
}

func (s *notificationService) publishPushEvent(notification *model.Notification) {
	if s.rabbitClient == nil {
		return
	}

	event := PushEvent{
		NotificationID: notification.ID,
		UserID:         notification.UserID,
		Type:           notification.Type,
		Title:          notification.Title,
		Message:        notification.Message,
	}
	if notification.TargetID != nil {
		event.TargetID = *notification.TargetID
	}
	if notification.SenderID != nil {
		event.SenderID = *notification.SenderID
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal push event: %v", err)
		return
	}

	if err := s.rabbitClient.Publish(NotificationExchange, NotificationRoutingKey, body); err != nil {
		log.Printf("Failed to publish push event for notification %s: %v", notification.ID, err)
	}
}

func (s *notificationService) DeleteByTargetIDAndType(targetID, notifType string) error {
	return s.notificationRepo.DeleteByTargetIDAndType(targetID, notifType)
}

func (s *notificationService) ListNotifications(userID string, limit, offset int) ([]*model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.notificationRepo.FindByUserID(userID, limit, offset)
}

func (s *notificationService) ListUnread(userID string) ([]*model.Notification, error) {
	return s.notificationRepo.FindUnreadByUserID(userID)
}

func (s *notificationService) CountUnread(userID string) (int64, error) {
	return s.notificationRepo.CountUnreadByUserID(userID)
}

func (s *notificationService) MarkAsRead(notificationID, callerID string) error {
	notification, err := s.notificationRepo.FindByID(notificationID)
	if err != nil {
		return ErrNotificationNotFound
	}

	if notification.UserID != callerID {
		return ErrNotAuthorized
	}

	return s.notificationRepo.MarkAsRead(notificationID)
}

func (s *notificationService) MarkAllAsRead(userID string) error {
	return s.notificationRepo.MarkAllAsRead(userID)
}

func (s *notificationService) Delete(notificationID, callerID string) error {
	notification, err := s.notificationRepo.FindByID(notificationID)
	if err != nil {
		return ErrNotificationNotFound
	}

	if notification.UserID != callerID {
		return ErrNotAuthorized
	}

	return s.notificationRepo.Delete(notificationID)
}
