package service

import (
	"testing"

	"umamii/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recommendationFixture struct {
	svc            RecommendationService
	recRepo        *fakeRecommendationRepo
	restaurantRepo *fakeRestaurantRepo
	profileRepo    *fakeProfileRepo
	friendshipRepo *fakeFriendshipRepo
	restaurantID   string
}

func newRecommendationFixture(t *testing.T, userIDs ...string) *recommendationFixture {
	t.Helper()

	f := &recommendationFixture{
		recRepo:        newFakeRecommendationRepo(),
		restaurantRepo: newFakeRestaurantRepo(),
		profileRepo:    newFakeProfileRepo(),
		friendshipRepo: newFakeFriendshipRepo(),
	}
	for _, id := range userIDs {
		f.profileRepo.add(id, "user-"+id, 0, 0)
	}

	restaurant := &model.Restaurant{Name: "Ramen Nagi", Address: "1 Noodle St", Latitude: 35.6, Longitude: 139.7}
	require.NoError(t, f.restaurantRepo.Create(restaurant))
	f.restaurantID = restaurant.ID

	f.svc = NewRecommendationService(
		f.recRepo, f.restaurantRepo, f.profileRepo, f.friendshipRepo, newFakeNotificationService(), nil)
	return f
}

func TestCreateRecommendation(t *testing.T) {
	t.Run("creates an approved recommendation", func(t *testing.T) {
		f := newRecommendationFixture(t, "alice")

		rec, err := f.svc.CreateRecommendation("alice", CreateRecommendationInput{
			RestaurantID: f.restaurantID,
			Types:        []string{"dinner"},
			Cuisine:      []string{"japanese"},
			PersonalNote: "best tonkotsu in town",
		})
		require.NoError(t, err)
		assert.True(t, rec.IsApproved)
		assert.Equal(t, "alice", rec.UserID)
		assert.Equal(t, []string{"dinner"}, rec.GetTypes())
		assert.Equal(t, []string{"japanese"}, rec.GetCuisine())
	})

	t.Run("rejects unknown restaurants", func(t *testing.T) {
		f := newRecommendationFixture(t, "alice")

		_, err := f.svc.CreateRecommendation("alice", CreateRecommendationInput{RestaurantID: "nope"})
		assert.ErrorIs(t, err, ErrRestaurantNotFound)
	})
}

func TestUpvote(t *testing.T) {
	create := func(t *testing.T, f *recommendationFixture, author string) string {
		rec, err := f.svc.CreateRecommendation(author, CreateRecommendationInput{RestaurantID: f.restaurantID})
		require.NoError(t, err)
		return rec.ID
	}

	t.Run("records one upvote per user", func(t *testing.T) {
		f := newRecommendationFixture(t, "alice", "bob")
		recID := create(t, f, "alice")

		require.NoError(t, f.svc.Upvote(recID, "bob"))

		err := f.svc.Upvote(recID, "bob")
		assert.ErrorIs(t, err, ErrAlreadyUpvoted)
	})

	t.Run("authors cannot upvote themselves", func(t *testing.T) {
		f := newRecommendationFixture(t, "alice")
		recID := create(t, f, "alice")

		err := f.svc.Upvote(recID, "alice")
		assert.ErrorIs(t, err, ErrSelfUpvote)
	})

	t.Run("removing an upvote requires one to exist", func(t *testing.T) {
		f := newRecommendationFixture(t, "alice", "bob")
		recID := create(t, f, "alice")

		err := f.svc.RemoveUpvote(recID, "bob")
		assert.ErrorIs(t, err, ErrNotUpvoted)

		require.NoError(t, f.svc.Upvote(recID, "bob"))
		require.NoError(t, f.svc.RemoveUpvote(recID, "bob"))

		// Upvoting again after removal works
		assert.NoError(t, f.svc.Upvote(recID, "bob"))
	})

	t.Run("unknown recommendation fails", func(t *testing.T) {
		f := newRecommendationFixture(t, "alice")

		err := f.svc.Upvote("nope", "alice")
		assert.ErrorIs(t, err, ErrRecommendationNotFound)
	})
}

func TestFriendFeed(t *testing.T) {
	f := newRecommendationFixture(t, "alice", "bob", "carol")

	// alice and bob are friends, carol is a stranger
	friendship := &model.Friendship{RequesterID: "alice", RecipientID: "bob", Status: model.FriendshipStatusAccepted}
	require.NoError(t, f.friendshipRepo.Create(friendship))

	_, err := f.svc.CreateRecommendation("bob", CreateRecommendationInput{RestaurantID: f.restaurantID})
	require.NoError(t, err)
	_, err = f.svc.CreateRecommendation("carol", CreateRecommendationInput{RestaurantID: f.restaurantID})
	require.NoError(t, err)

	// alice sees bob's recommendation but not carol's
	feed, err := f.svc.FriendFeed("alice", 20, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "bob", feed[0].UserID)

	// carol has no friends but still sees her own
	feed, err = f.svc.FriendFeed("carol", 20, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "carol", feed[0].UserID)
}

func TestDeleteRecommendation(t *testing.T) {
	f := newRecommendationFixture(t, "alice", "bob")

	rec, err := f.svc.CreateRecommendation("alice", CreateRecommendationInput{RestaurantID: f.restaurantID})
	require.NoError(t, err)

	// Only the author may delete
	err = f.svc.Delete(rec.ID, "bob")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, f.svc.Delete(rec.ID, "alice"))

	_, err = f.svc.GetRecommendation(rec.ID)
	assert.ErrorIs(t, err, ErrRecommendationNotFound)
}
