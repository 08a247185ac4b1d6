package service

import (
	"testing"

	"umamii/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFriendshipFixture(t *testing.T, userIDs ...string) (FriendshipService, *fakeFriendshipRepo, *fakeProfileRepo) {
	t.Helper()
	friendshipRepo := newFakeFriendshipRepo()
	profileRepo := newFakeProfileRepo()
	for _, id := range userIDs {
		profileRepo.add(id, "user-"+id, 0, 0)
	}
	svc := NewFriendshipService(friendshipRepo, profileRepo, newFakeNotificationService())
	return svc, friendshipRepo, profileRepo
}

func TestSendRequest(t *testing.T) {
	t.Run("creates a pending edge", func(t *testing.T) {
		svc, _, _ := newFriendshipFixture(t, "alice", "bob")

		friendship, err := svc.SendRequest("alice", "bob")
		require.NoError(t, err)
		assert.Equal(t, "alice", friendship.RequesterID)
		assert.Equal(t, "bob", friendship.RecipientID)
		assert.Equal(t, model.FriendshipStatusPending, friendship.Status)
	})

	t.Run("rejects self requests", func(t *testing.T) {
		svc, _, _ := newFriendshipFixture(t, "alice")

		_, err := svc.SendRequest("alice", "alice")
		assert.ErrorIs(t, err, ErrSelfFriendship)
	})

	t.Run("rejects unknown users", func(t *testing.T) {
		svc, _, _ := newFriendshipFixture(t, "alice")

		_, err := svc.SendRequest("alice", "ghost")
		assert.ErrorIs(t, err, ErrUserNotFound)

		_, err = svc.SendRequest("ghost", "alice")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("rejects a second request for the same pair", func(t *testing.T) {
		svc, _, _ := newFriendshipFixture(t, "alice", "bob")

		_, err := svc.SendRequest("alice", "bob")
		require.NoError(t, err)

		_, err = svc.SendRequest("alice", "bob")
		assert.ErrorIs(t, err, ErrDuplicateFriendship)
	})

	t.Run("rejects the reverse direction while pending", func(t *testing.T) {
		svc, _, _ := newFriendshipFixture(t, "alice", "bob")

		_, err := svc.SendRequest("alice", "bob")
		require.NoError(t, err)

		_, err = svc.SendRequest("bob", "alice")
		assert.ErrorIs(t, err, ErrDuplicateFriendship)
	})

	t.Run("rejects new requests between friends", func(t *testing.T) {
		svc, _, _ := newFriendshipFixture(t, "alice", "bob")

		friendship, err := svc.SendRequest("alice", "bob")
		require.NoError(t, err)
		_, err = svc.AcceptRequest(friendship.ID, "bob")
		require.NoError(t, err)

		_, err = svc.SendRequest("bob", "alice")
		assert.ErrorIs(t, err, ErrDuplicateFriendship)
	})
}

func TestAcceptRequest(t *testing.T) {
	t.Run("recipient accepts a pending request", func(t *testing.T) {
		svc, _, _ := newFriendshipFixture(t, "alice", "bob")

		friendship, err := svc.SendRequest("alice", "bob")
		require.NoError(t, err)

		accepted, err := svc.AcceptRequest(friendship.ID, "bob")
		require.NoError(t, err)
		assert.Equal(t, model.FriendshipStatusAccepted, accepted.Status)
		// Direction is preserved across the transition
		assert.Equal(t, "alice", accepted.RequesterID)
		assert.Equal(t, "bob", accepted.RecipientID)
	})

	t.Run("requester cannot accept their own request", func(t *testing.T) {
		svc, _, _ := newFriendshipFixture(t, "alice", "bob")

		friendship, err := svc.SendRequest("alice", "bob")
		require.NoError(t, err)

		_, err = svc.AcceptRequest(friendship.ID, "alice")
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("third parties cannot accept", func(t *testing.T) {
		svc, _, _ := newFriendshipFixture(t, "alice", "bob", "carol")

		friendship, err := svc.SendRequest("alice", "bob")
		require.NoError(t, err)

		_, err = svc.AcceptRequest(friendship.ID, "carol")
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("accepting twice fails with invalid state", func(t *testing.T) {
		svc, _, _ := newFriendshipFixture(t, "alice", "bob")

		friendship, err := svc.SendRequest("alice", "bob")
		require.NoError(t, err)

		_, err = svc.AcceptRequest(friendship.ID, "bob")
		require.NoError(t, err)

		_, err = svc.AcceptRequest(friendship.ID, "bob")
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("unknown id fails with not found", func(t *testing.T) {
		svc, _, _ := newFriendshipFixture(t, "alice")

		_, err := svc.AcceptRequest("nope", "alice")
		assert.ErrorIs(t, err, ErrFriendshipNotFound)
	})
}

func TestDeclineRequest(t *testing.T) {
	t.Run("decline deletes the edge and allows a fresh request", func(t *testing.T) {
		svc, _, _ := newFriendshipFixture(t, "alice", "bob")

		friendship, err := svc.SendRequest("alice", "bob")
		require.NoError(t, err)

		require.NoError(t, svc.DeclineRequest(friendship.ID, "bob"))

		status, err := svc.RelationshipStatus("alice", "bob")
		require.NoError(t, err)
		assert.Equal(t, model.RelationNone, status)

		// Either side can start over, including the former recipient
		_, err = svc.SendRequest("bob", "alice")
		assert.NoError(t, err)
	})

	t.Run("only the recipient can decline", func(t *testing.T) {
		svc, _, _ := newFriendshipFixture(t, "alice", "bob")

		friendship, err := svc.SendRequest("alice", "bob")
		require.NoError(t, err)

		err = svc.DeclineRequest(friendship.ID, "alice")
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("declining an accepted edge fails", func(t *testing.T) {
		svc, _, _ := newFriendshipFixture(t, "alice", "bob")

		friendship, err := svc.SendRequest("alice", "bob")
		require.NoError(t, err)
		_, err = svc.AcceptRequest(friendship.ID, "bob")
		require.NoError(t, err)

		err = svc.DeclineRequest(friendship.ID, "bob")
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestRemoveFriend(t *testing.T) {
	setup := func(t *testing.T) (FriendshipService, string) {
		svc, _, _ := newFriendshipFixture(t, "alice", "bob")
		friendship, err := svc.SendRequest("alice", "bob")
		require.NoError(t, err)
		_, err = svc.AcceptRequest(friendship.ID, "bob")
		require.NoError(t, err)
		return svc, friendship.ID
	}

	t.Run("either party can remove", func(t *testing.T) {
		svc, id := setup(t)
		require.NoError(t, svc.RemoveFriend(id, "alice"))

		svc, id = setup(t)
		require.NoError(t, svc.RemoveFriend(id, "bob"))
	})

	t.Run("removal deletes the edge", func(t *testing.T) {
		svc, id := setup(t)
		require.NoError(t, svc.RemoveFriend(id, "alice"))

		status, err := svc.RelationshipStatus("alice", "bob")
		require.NoError(t, err)
		assert.Equal(t, model.RelationNone, status)

		// A second removal sees nothing to remove
		err = svc.RemoveFriend(id, "bob")
		assert.ErrorIs(t, err, ErrFriendshipNotFound)
	})

	t.Run("outsiders cannot remove", func(t *testing.T) {
		svc, _, _ := newFriendshipFixture(t, "alice", "bob", "carol")
		friendship, err := svc.SendRequest("alice", "bob")
		require.NoError(t, err)
		_, err = svc.AcceptRequest(friendship.ID, "bob")
		require.NoError(t, err)

		err = svc.RemoveFriend(friendship.ID, "carol")
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("pending edges cannot be removed", func(t *testing.T) {
		svc, _, _ := newFriendshipFixture(t, "alice", "bob")
		friendship, err := svc.SendRequest("alice", "bob")
		require.NoError(t, err)

		err = svc.RemoveFriend(friendship.ID, "alice")
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestListFriends(t *testing.T) {
	t.Run("resolves the counterpart regardless of direction", func(t *testing.T) {
		svc, _, _ := newFriendshipFixture(t, "alice", "bob", "carol")

		// bob appears as recipient of one edge and requester of another
		f1, err := svc.SendRequest("alice", "bob")
		require.NoError(t, err)
		_, err = svc.AcceptRequest(f1.ID, "bob")
		require.NoError(t, err)

		f2, err := svc.SendRequest("bob", "carol")
		require.NoError(t, err)
		_, err = svc.AcceptRequest(f2.ID, "carol")
		require.NoError(t, err)

		friends, err := svc.ListFriends("bob")
		require.NoError(t, err)
		require.Len(t, friends, 2)

		names := map[string]bool{}
		for _, entry := range friends {
			require.NotNil(t, entry.Friend)
			names[entry.Friend.UserID] = true
		}
		assert.True(t, names["alice"])
		assert.True(t, names["carol"])
	})

	t.Run("pending edges are not friends", func(t *testing.T) {
		svc, _, _ := newFriendshipFixture(t, "alice", "bob")

		_, err := svc.SendRequest("alice", "bob")
		require.NoError(t, err)

		friends, err := svc.ListFriends("alice")
		require.NoError(t, err)
		assert.Empty(t, friends)
	})
}

func TestListRequests(t *testing.T) {
	svc, _, _ := newFriendshipFixture(t, "alice", "bob", "carol")

	_, err := svc.SendRequest("alice", "bob")
	require.NoError(t, err)
	_, err = svc.SendRequest("carol", "alice")
	require.NoError(t, err)

	incoming, err := svc.ListIncomingRequests("alice")
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, "carol", incoming[0].RequesterID)

	outgoing, err := svc.ListOutgoingRequests("alice")
	require.NoError(t, err)
	require.Len(t, outgoing, 1)
	assert.Equal(t, "bob", outgoing[0].RecipientID)
}

func TestSuggestCandidates(t *testing.T) {
	t.Run("excludes self, friends and pending in both directions", func(t *testing.T) {
		svc, _, _ := newFriendshipFixture(t, "alice", "friend", "sent", "received", "stranger")

		f, err := svc.SendRequest("alice", "friend")
		require.NoError(t, err)
		_, err = svc.AcceptRequest(f.ID, "friend")
		require.NoError(t, err)

		_, err = svc.SendRequest("alice", "sent")
		require.NoError(t, err)
		_, err = svc.SendRequest("received", "alice")
		require.NoError(t, err)

		suggestions, err := svc.SuggestCandidates("alice", 10)
		require.NoError(t, err)
		require.Len(t, suggestions, 1)
		assert.Equal(t, "stranger", suggestions[0].UserID)
	})

	t.Run("ranks by activity with id tie-break", func(t *testing.T) {
		friendshipRepo := newFakeFriendshipRepo()
		profileRepo := newFakeProfileRepo()
		profileRepo.add("me", "me", 0, 0)
		profileRepo.add("b-mid", "b", 2, 1) // score 3
		profileRepo.add("a-mid", "a", 1, 2) // score 3, smaller id wins the tie
		profileRepo.add("top", "t", 5, 5)   // score 10
		profileRepo.add("low", "l", 0, 0)   // score 0
		svc := NewFriendshipService(friendshipRepo, profileRepo, newFakeNotificationService())

		suggestions, err := svc.SuggestCandidates("me", 10)
		require.NoError(t, err)
		require.Len(t, suggestions, 4)
		assert.Equal(t, "top", suggestions[0].UserID)
		assert.Equal(t, "a-mid", suggestions[1].UserID)
		assert.Equal(t, "b-mid", suggestions[2].UserID)
		assert.Equal(t, "low", suggestions[3].UserID)
	})

	t.Run("truncates to the limit", func(t *testing.T) {
		svc, _, _ := newFriendshipFixture(t, "me", "u1", "u2", "u3")

		suggestions, err := svc.SuggestCandidates("me", 2)
		require.NoError(t, err)
		assert.Len(t, suggestions, 2)
	})

	t.Run("defaults the limit when non-positive", func(t *testing.T) {
		svc, _, _ := newFriendshipFixture(t, "me", "u1")

		suggestions, err := svc.SuggestCandidates("me", 0)
		require.NoError(t, err)
		assert.Len(t, suggestions, 1)
	})
}

func TestRelationshipStatus(t *testing.T) {
	svc, _, _ := newFriendshipFixture(t, "alice", "bob", "carol", "dave")

	// none before any edge exists
	status, err := svc.RelationshipStatus("alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, model.RelationNone, status)

	// a user compared with themselves is never related
	status, err = svc.RelationshipStatus("alice", "alice")
	require.NoError(t, err)
	assert.Equal(t, model.RelationNone, status)

	// pending is directional
	_, err = svc.SendRequest("alice", "bob")
	require.NoError(t, err)

	status, err = svc.RelationshipStatus("alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, model.RelationPendingSent, status)

	status, err = svc.RelationshipStatus("bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, model.RelationPendingReceived, status)

	// accepted is symmetric
	f, err := svc.SendRequest("carol", "dave")
	require.NoError(t, err)
	_, err = svc.AcceptRequest(f.ID, "dave")
	require.NoError(t, err)

	status, err = svc.RelationshipStatus("carol", "dave")
	require.NoError(t, err)
	assert.Equal(t, model.RelationFriend, status)

	status, err = svc.RelationshipStatus("dave", "carol")
	require.NoError(t, err)
	assert.Equal(t, model.RelationFriend, status)
}
