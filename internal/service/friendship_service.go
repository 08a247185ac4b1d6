package service

import (
	"errors"
	"fmt"
	"sort"

	"umamii/internal/model"
	"umamii/internal/repository"

	"gorm.io/gorm"
)

// Typed failures of the friend graph. Handlers map these to HTTP statuses
// with errors.Is, nothing here is retried internally.
var (
	ErrSelfFriendship      = errors.New("cannot send a friend request to yourself")
	ErrDuplicateFriendship = errors.New("already friends or a request is pending")
	ErrFriendshipNotFound  = errors.New("friendship not found")
	ErrNotAuthorized       = errors.New("not allowed to act on this friendship")
	ErrInvalidState        = errors.New("friendship is not in the required state")
	ErrUserNotFound        = errors.New("user not found")
)

// FriendEntry pairs an accepted edge with the counterpart's display profile
type FriendEntry struct {
	Friendship *model.Friendship `json:"friendship"`
	Friend     *model.Profile    `json:"friend"`
}

type FriendshipService interface {
	SendRequest(requesterID, recipientID string) (*model.Friendship, error)
	AcceptRequest(friendshipID, callerID string) (*model.Friendship, error)
	DeclineRequest(friendshipID, callerID string) error
	RemoveFriend(friendshipID, callerID string) error
	ListFriends(userID string) ([]*FriendEntry, error)
	ListIncomingRequests(userID string) ([]*model.Friendship, error)
	ListOutgoingRequests(userID string) ([]*model.Friendship, error)
	SuggestCandidates(userID string, limit int) ([]*model.Profile, error)
	RelationshipStatus(userID, otherID string) (string, error)
}

type friendshipService struct {
	friendshipRepo repository.FriendshipRepository
	profileRepo    repository.ProfileRepository
	notifService   NotificationService
}

func NewFriendshipService(
	friendshipRepo repository.FriendshipRepository,
	profileRepo repository.ProfileRepository,
	notifService NotificationService,
) FriendshipService {
	return &friendshipService{
		friendshipRepo: friendshipRepo,
		profileRepo:    profileRepo,
		notifService:   notifService,
	}
}

// SendRequest creates a pending edge from requester to recipient. At most one
// edge may exist per unordered pair, in either direction and either status.
func (s *friendshipService) SendRequest(requesterID, recipientID string) (*model.Friendship, error) {
	if requesterID == recipientID {
		return nil, ErrSelfFriendship
	}

	requester, err := s.profileRepo.FindByUserID(requesterID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if _, err := s.profileRepo.FindByUserID(recipientID); err != nil {
		return nil, ErrUserNotFound
	}

	// Pre-check for an existing edge in either direction. The pair uniqueness
	// index backstops the race where two sends pass this check concurrently.
	if _, err := s.friendshipRepo.FindByPair(requesterID, recipientID); err == nil {
		return nil, ErrDuplicateFriendship
	}

	friendship := &model.Friendship{
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      model.FriendshipStatusPending,
	}

	if err := s.friendshipRepo.Create(friendship); err != nil {
		if errors.Is(err, repository.ErrDuplicatePair) {
			return nil, ErrDuplicateFriendship
		}
		return nil, fmt.Errorf("failed to create friend request: %w", err)
	}

	// Notify the recipient (async, non-blocking)
	go func() {
		s.notifService.SendFriendRequestNotification(
			recipientID,
			requesterID,
			requester.Name,
			friendship.ID,
		)
	}()

	// Reload with relationships
	return s.friendshipRepo.FindByID(friendship.ID)
}

// AcceptRequest flips a pending edge to accepted. Only the recipient may
// accept; direction is fixed at creation and never changes.
func (s *friendshipService) AcceptRequest(friendshipID, callerID string) (*model.Friendship, error) {
	friendship, err := s.friendshipRepo.FindByID(friendshipID)
	if err != nil {
		return nil, ErrFriendshipNotFound
	}

	if friendship.RecipientID != callerID {
		return nil, ErrNotAuthorized
	}

	if friendship.Status != model.FriendshipStatusPending {
		return nil, ErrInvalidState
	}

	friendship.Status = model.FriendshipStatusAccepted
	if err := s.friendshipRepo.Update(friendship); err != nil {
		return nil, fmt.Errorf("failed to accept friend request: %w", err)
	}

	// Counter bumps and the requester's notification are eventually
	// consistent side effects, not part of the transition
	go func() {
		s.profileRepo.AdjustFriendsCount(friendship.RequesterID, 1)
		s.profileRepo.AdjustFriendsCount(friendship.RecipientID, 1)

		recipient, _ := s.profileRepo.FindByUserID(friendship.RecipientID)
		if recipient != nil {
			s.notifService.SendFriendAcceptedNotification(
				friendship.RequesterID,
				friendship.RecipientID,
				recipient.Name,
				friendship.ID,
			)
		}
	}()

	return s.friendshipRepo.FindByID(friendship.ID)
}

// DeclineRequest deletes a pending edge. No declined status persists, the
// pair returns to "no relationship" and either side may send a fresh request.
func (s *friendshipService) DeclineRequest(friendshipID, callerID string) error {
	friendship, err := s.friendshipRepo.FindByID(friendshipID)
	if err != nil {
		return ErrFriendshipNotFound
	}

	if friendship.RecipientID != callerID {
		return ErrNotAuthorized
	}

	if friendship.Status != model.FriendshipStatusPending {
		return ErrInvalidState
	}

	if err := s.friendshipRepo.Delete(friendshipID); err != nil {
		return fmt.Errorf("failed to decline friend request: %w", err)
	}

	// Retract the request notification, the recipient acted on it
	go func() {
		s.notifService.DeleteByTargetIDAndType(friendshipID, model.NotificationTypeFriendRequest)
	}()

	return nil
}

// RemoveFriend deletes an accepted edge. Either party may remove; removing an
// already-removed edge fails with ErrFriendshipNotFound so the caller can
// treat it as already gone.
func (s *friendshipService) RemoveFriend(friendshipID, callerID string) error {
	friendship, err := s.friendshipRepo.FindByID(friendshipID)
	if err != nil {
		return ErrFriendshipNotFound
	}

	if !friendship.Involves(callerID) {
		return ErrNotAuthorized
	}

	if friendship.Status != model.FriendshipStatusAccepted {
		return ErrInvalidState
	}

	if err := s.friendshipRepo.Delete(friendshipID); err != nil {
		return fmt.Errorf("failed to remove friend: %w", err)
	}

	counterpartID := friendship.CounterpartOf(callerID)
	go func() {
		s.profileRepo.AdjustFriendsCount(friendship.RequesterID, -1)
		s.profileRepo.AdjustFriendsCount(friendship.RecipientID, -1)

		remover, _ := s.profileRepo.FindByUserID(callerID)
		if remover != nil {
			s.notifService.SendFriendRemovedNotification(counterpartID, callerID, remover.Name)
		}
	}()

	return nil
}

// ListFriends returns all accepted edges touching userID with the counterpart
// of each edge resolved to a display profile. Lookup is symmetric: the user
// may sit on either side of an edge.
func (s *friendshipService) ListFriends(userID string) ([]*FriendEntry, error) {
	friendships, err := s.friendshipRepo.FindAcceptedByUserID(userID)
	if err != nil {
		return nil, err
	}

	counterpartIDs := make([]string, 0, len(friendships))
	for _, f := range friendships {
		counterpartIDs = append(counterpartIDs, f.CounterpartOf(userID))
	}

	profiles, err := s.profileRepo.FindByUserIDs(counterpartIDs)
	if err != nil {
		return nil, err
	}

	profilesByUserID := make(map[string]*model.Profile, len(profiles))
	for _, p := range profiles {
		profilesByUserID[p.UserID] = p
	}

	entries := make([]*FriendEntry, 0, len(friendships))
	for _, f := range friendships {
		entries = append(entries, &FriendEntry{
			Friendship: f,
			Friend:     profilesByUserID[f.CounterpartOf(userID)],
		})
	}

	return entries, nil
}

// ListIncomingRequests returns pending edges where userID is the recipient
func (s *friendshipService) ListIncomingRequests(userID string) ([]*model.Friendship, error) {
	return s.friendshipRepo.FindPendingByRecipientID(userID)
}

// ListOutgoingRequests returns pending edges where userID is the requester
func (s *friendshipService) ListOutgoingRequests(userID string) ([]*model.Friendship, error) {
	return s.friendshipRepo.FindPendingByRequesterID(userID)
}

// SuggestCandidates ranks users the caller has no edge with at all: friends
// and pending requests in either direction are excluded alike. Ranked by
// activity (recommendations + friends), ties broken by user id so repeated
// calls over unchanged data return the same order. Recomputed fresh per call.
func (s *friendshipService) SuggestCandidates(userID string, limit int) ([]*model.Profile, error) {
	if limit <= 0 {
		limit = 10
	}

	edges, err := s.friendshipRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}

	exclude := make([]string, 0, len(edges)+1)
	exclude = append(exclude, userID)
	for _, edge := range edges {
		exclude = append(exclude, edge.CounterpartOf(userID))
	}

	candidates, err := s.profileRepo.FindAllExcept(exclude)
	if err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		si, sj := candidates[i].ActivityScore(), candidates[j].ActivityScore()
		if si != sj {
			return si > sj
		}
		return candidates[i].UserID < candidates[j].UserID
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return candidates, nil
}

// RelationshipStatus derives the relation between two users from the single
// edge that may exist between them. Exactly one value holds at any time.
func (s *friendshipService) RelationshipStatus(userID, otherID string) (string, error) {
	if userID == otherID {
		return model.RelationNone, nil
	}

	friendship, err := s.friendshipRepo.FindByPair(userID, otherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.RelationNone, nil
		}
		return "", err
	}

	if friendship.Status == model.FriendshipStatusAccepted {
		return model.RelationFriend, nil
	}
	if friendship.RequesterID == userID {
		return model.RelationPendingSent, nil
	}
	return model.RelationPendingReceived, nil
}
