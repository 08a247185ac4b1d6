package service

import (
	"strings"
	"sync"
	"time"

	"umamii/internal/model"
	"umamii/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository fakes. Services launch goroutines for side effects,
// so every fake is mutex-guarded.

type fakeFriendshipRepo struct {
	mu          sync.Mutex
	friendships map[string]*model.Friendship
}

func newFakeFriendshipRepo() *fakeFriendshipRepo {
	return &fakeFriendshipRepo{friendships: make(map[string]*model.Friendship)}
}

func (r *fakeFriendshipRepo) Create(friendship *model.Friendship) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.friendships {
		samePair := (f.RequesterID == friendship.RequesterID && f.RecipientID == friendship.RecipientID) ||
			(f.RequesterID == friendship.RecipientID && f.RecipientID == friendship.RequesterID)
		if samePair {
			return repository.ErrDuplicatePair
		}
	}
	if friendship.ID == "" {
		friendship.ID = uuid.New().String()
	}
	friendship.CreatedAt = time.Now()
	friendship.UpdatedAt = friendship.CreatedAt
	cp := *friendship
	r.friendships[friendship.ID] = &cp
	return nil
}

func (r *fakeFriendshipRepo) FindByID(id string) (*model.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.friendships[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFriendshipRepo) FindByPair(userID, otherID string) (*model.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.friendships {
		if (f.RequesterID == userID && f.RecipientID == otherID) ||
			(f.RequesterID == otherID && f.RecipientID == userID) {
			cp := *f
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeFriendshipRepo) FindByUserID(userID string) ([]*model.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Friendship
	for _, f := range r.friendships {
		if f.Involves(userID) {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeFriendshipRepo) FindAcceptedByUserID(userID string) ([]*model.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Friendship
	for _, f := range r.friendships {
		if f.Involves(userID) && f.Status == model.FriendshipStatusAccepted {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeFriendshipRepo) FindPendingByRecipientID(recipientID string) ([]*model.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Friendship
	for _, f := range r.friendships {
		if f.RecipientID == recipientID && f.Status == model.FriendshipStatusPending {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeFriendshipRepo) FindPendingByRequesterID(requesterID string) ([]*model.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Friendship
	for _, f := range r.friendships {
		if f.RequesterID == requesterID && f.Status == model.FriendshipStatusPending {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeFriendshipRepo) Update(friendship *model.Friendship) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.friendships[friendship.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	friendship.UpdatedAt = time.Now()
	cp := *friendship
	r.friendships[friendship.ID] = &cp
	return nil
}

func (r *fakeFriendshipRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.friendships[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.friendships, id)
	return nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*model.Profile // keyed by user id
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*model.Profile)}
}

func (r *fakeProfileRepo) add(userID, name string, friends, recommendations int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[userID] = &model.Profile{
		ID:                   uuid.New().String(),
		UserID:               userID,
		Name:                 name,
		Username:             strings.ToLower(name),
		FriendsCount:         friends,
		RecommendationsCount: recommendations,
	}
}

func (r *fakeProfileRepo) Create(profile *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	cp := *profile
	r.profiles[profile.UserID] = &cp
	return nil
}

func (r *fakeProfileRepo) FindByID(id string) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProfileRepo) FindByUserID(userID string) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) FindByUserIDs(userIDs []string) ([]*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Profile
	for _, id := range userIDs {
		if p, ok := r.profiles[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeProfileRepo) FindByUsername(username string) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.Username == username {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProfileRepo) UsernameExists(username string) (bool, error) {
	_, err := r.FindByUsername(username)
	return err == nil, nil
}

func (r *fakeProfileRepo) Search(keyword, excludeUserID string, limit int) ([]*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keyword = strings.ToLower(keyword)
	var out []*model.Profile
	for _, p := range r.profiles {
		if p.UserID == excludeUserID {
			continue
		}
		if strings.Contains(strings.ToLower(p.Name), keyword) || strings.Contains(p.Username, keyword) {
			cp := *p
			out = append(out, &cp)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeProfileRepo) FindAllExcept(excludeUserIDs []string) ([]*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	excluded := make(map[string]bool, len(excludeUserIDs))
	for _, id := range excludeUserIDs {
		excluded[id] = true
	}
	var out []*model.Profile
	for _, p := range r.profiles {
		if !excluded[p.UserID] {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeProfileRepo) Update(profile *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[profile.UserID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *profile
	r.profiles[profile.UserID] = &cp
	return nil
}

func (r *fakeProfileRepo) AdjustFriendsCount(userID string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[userID]; ok {
		p.FriendsCount += delta
		if p.FriendsCount < 0 {
			p.FriendsCount = 0
		}
	}
	return nil
}

func (r *fakeProfileRepo) AdjustRecommendationsCount(userID string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[userID]; ok {
		p.RecommendationsCount += delta
		if p.RecommendationsCount < 0 {
			p.RecommendationsCount = 0
		}
	}
	return nil
}

func (r *fakeProfileRepo) DeleteByUserID(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[userID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.profiles, userID)
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User // keyed by id
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (r *fakeUserRepo) Create(user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByID(id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) UpdateOTP(email string, otpHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u.OTPCodeHash = &otpHash
			u.OTPExpiresAt = &expiresAt
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) ClearOTP(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.OTPCodeHash = nil
	u.OTPExpiresAt = nil
	u.IsVerified = true
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		now := time.Now()
		u.LastLoginAt = &now
	}
	return nil
}

func (r *fakeUserRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

// fakeNotificationService records calls so tests can assert side effects
// without a broker
type fakeNotificationService struct {
	mu      sync.Mutex
	sent    []string // "<type>:<recipient>"
	deleted []string // "<type>:<target>"
}

func newFakeNotificationService() *fakeNotificationService {
	return &fakeNotificationService{}
}

func (s *fakeNotificationService) record(kind, recipient string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, kind+":"+recipient)
}

func (s *fakeNotificationService) SendFriendRequestNotification(recipientID, senderID, senderName, friendshipID string) error {
	s.record(model.NotificationTypeFriendRequest, recipientID)
	return nil
}

func (s *fakeNotificationService) SendFriendAcceptedNotification(recipientID, senderID, senderName, friendshipID string) error {
	s.record(model.NotificationTypeFriendAccepted, recipientID)
	return nil
}

func (s *fakeNotificationService) SendFriendRemovedNotification(recipientID, senderID, senderName string) error {
	s.record(model.NotificationTypeFriendRemoved, recipientID)
	return nil
}

func (s *fakeNotificationService) SendRecommendationUpvoteNotification(recipientID, senderID, senderName, recommendationID, restaurantName string) error {
	s.record(model.NotificationTypeRecommendationUpvote, recipientID)
	return nil
}

func (s *fakeNotificationService) DeleteByTargetIDAndType(targetID, notifType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, notifType+":"+targetID)
	return nil
}

func (s *fakeNotificationService) ListNotifications(userID string, limit, offset int) ([]*model.Notification, error) {
	return nil, nil
}

func (s *fakeNotificationService) ListUnread(userID string) ([]*model.Notification, error) {
	return nil, nil
}

func (s *fakeNotificationService) CountUnread(userID string) (int64, error) { return 0, nil }

func (s *fakeNotificationService) MarkAsRead(notificationID, callerID string) error { return nil }

func (s *fakeNotificationService) MarkAllAsRead(userID string) error { return nil }

func (s *fakeNotificationService) Delete(notificationID, callerID string) error { return nil }

type fakeRestaurantRepo struct {
	mu          sync.Mutex
	restaurants map[string]*model.Restaurant
}

func newFakeRestaurantRepo() *fakeRestaurantRepo {
	return &fakeRestaurantRepo{restaurants: make(map[string]*model.Restaurant)}
}

func (r *fakeRestaurantRepo) Create(restaurant *model.Restaurant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if restaurant.ID == "" {
		restaurant.ID = uuid.New().String()
	}
	cp := *restaurant
	r.restaurants[restaurant.ID] = &cp
	return nil
}

func (r *fakeRestaurantRepo) FindByID(id string) (*model.Restaurant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rest, ok := r.restaurants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *rest
	return &cp, nil
}

func (r *fakeRestaurantRepo) FindByGooglePlaceID(placeID string) (*model.Restaurant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rest := range r.restaurants {
		if rest.GooglePlaceID != nil && *rest.GooglePlaceID == placeID {
			cp := *rest
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRestaurantRepo) FindAll(limit, offset int) ([]*model.Restaurant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Restaurant
	for _, rest := range r.restaurants {
		cp := *rest
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeRestaurantRepo) Search(keyword string, limit int) ([]*model.Restaurant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keyword = strings.ToLower(keyword)
	var out []*model.Restaurant
	for _, rest := range r.restaurants {
		if strings.Contains(strings.ToLower(rest.Name), keyword) {
			cp := *rest
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRestaurantRepo) FindNearby(lat, lng, radiusKm float64, limit int) ([]*model.Restaurant, error) {
	// Distance math lives in SQL; the fake just records the call shape
	return r.FindAll(limit, 0)
}

type fakeRecommendationRepo struct {
	mu              sync.Mutex
	recommendations map[string]*model.Recommendation
	upvotes         map[string]bool // "<rec>:<user>"
}

func newFakeRecommendationRepo() *fakeRecommendationRepo {
	return &fakeRecommendationRepo{
		recommendations: make(map[string]*model.Recommendation),
		upvotes:         make(map[string]bool),
	}
}

func (r *fakeRecommendationRepo) Create(recommendation *model.Recommendation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if recommendation.ID == "" {
		recommendation.ID = uuid.New().String()
	}
	recommendation.CreatedAt = time.Now()
	cp := *recommendation
	r.recommendations[recommendation.ID] = &cp
	return nil
}

func (r *fakeRecommendationRepo) FindByID(id string) (*model.Recommendation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recommendations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeRecommendationRepo) FindApproved(limit, offset int) ([]*model.Recommendation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Recommendation
	for _, rec := range r.recommendations {
		if rec.IsApproved {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRecommendationRepo) FindByUserID(userID string, limit, offset int) ([]*model.Recommendation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Recommendation
	for _, rec := range r.recommendations {
		if rec.UserID == userID && rec.IsApproved {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRecommendationRepo) FindByUserIDs(userIDs []string, limit, offset int) ([]*model.Recommendation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	allowed := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		allowed[id] = true
	}
	var out []*model.Recommendation
	for _, rec := range r.recommendations {
		if allowed[rec.UserID] && rec.IsApproved {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRecommendationRepo) CountByUserID(userID string) (int64, error) {
	recs, _ := r.FindByUserID(userID, 0, 0)
	return int64(len(recs)), nil
}

func (r *fakeRecommendationRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recommendations[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.recommendations, id)
	return nil
}

func (r *fakeRecommendationRepo) FindUpvote(recommendationID, userID string) (*model.RecommendationUpvote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upvotes[recommendationID+":"+userID] {
		return &model.RecommendationUpvote{
			RecommendationID: recommendationID,
			UserID:           userID,
		}, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRecommendationRepo) CreateUpvote(upvote *model.RecommendationUpvote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upvotes[upvote.RecommendationID+":"+upvote.UserID] = true
	return nil
}

func (r *fakeRecommendationRepo) DeleteUpvote(recommendationID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.upvotes, recommendationID+":"+userID)
	return nil
}

func (r *fakeRecommendationRepo) AdjustUpvotes(recommendationID string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.recommendations[recommendationID]; ok {
		rec.Upvotes += delta
		if rec.Upvotes < 0 {
			rec.Upvotes = 0
		}
	}
	return nil
}

func (r *fakeRecommendationRepo) FindUpvotedIDsByUserID(userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for key := range r.upvotes {
		parts := strings.SplitN(key, ":", 2)
		if len(parts) == 2 && parts[1] == userID {
			out = append(out, parts[0])
		}
	}
	return out, nil
}

// fakeEmailService captures outgoing codes instead of queueing them
type fakeEmailService struct {
	mu    sync.Mutex
	codes map[string]string // email -> last code
}

func newFakeEmailService() *fakeEmailService {
	return &fakeEmailService{codes: make(map[string]string)}
}

func (s *fakeEmailService) SendOTPEmail(to, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[to] = code
	return nil
}

func (s *fakeEmailService) lastCode(to string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[to]
}
