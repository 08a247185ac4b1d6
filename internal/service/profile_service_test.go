package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProfile(t *testing.T) {
	t.Run("creates a profile with normalized username", func(t *testing.T) {
		svc := NewProfileService(newFakeProfileRepo(), nil)

		profile, err := svc.CreateProfile("u1", CreateProfileInput{
			Name:        "Alice",
			Username:    "  Alice_99 ",
			Preferences: []string{"ramen", "sushi"},
		})
		require.NoError(t, err)
		assert.Equal(t, "alice_99", profile.Username)
		assert.Equal(t, []string{"ramen", "sushi"}, profile.GetPreferences())
	})

	t.Run("one profile per user", func(t *testing.T) {
		repo := newFakeProfileRepo()
		svc := NewProfileService(repo, nil)

		_, err := svc.CreateProfile("u1", CreateProfileInput{Name: "Alice", Username: "alice"})
		require.NoError(t, err)

		_, err = svc.CreateProfile("u1", CreateProfileInput{Name: "Alice", Username: "alice2"})
		assert.ErrorIs(t, err, ErrProfileExists)
	})

	t.Run("usernames are unique", func(t *testing.T) {
		repo := newFakeProfileRepo()
		svc := NewProfileService(repo, nil)

		_, err := svc.CreateProfile("u1", CreateProfileInput{Name: "Alice", Username: "alice"})
		require.NoError(t, err)

		_, err = svc.CreateProfile("u2", CreateProfileInput{Name: "Fake Alice", Username: "ALICE"})
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("rejects malformed usernames", func(t *testing.T) {
		svc := NewProfileService(newFakeProfileRepo(), nil)

		for _, username := range []string{"ab", "has space", "dash-ed", "wayyyyyyyyyyyyyyyyyyyyyytoolongusername"} {
			_, err := svc.CreateProfile("u1", CreateProfileInput{Name: "X", Username: username})
			assert.ErrorIs(t, err, ErrInvalidUsername, "username %q", username)
		}
	})
}

func TestCheckUsername(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := NewProfileService(repo, nil)
	_, err := svc.CreateProfile("u1", CreateProfileInput{Name: "Alice", Username: "alice"})
	require.NoError(t, err)

	t.Run("free username is available", func(t *testing.T) {
		available, err := svc.CheckUsername("bob")
		require.NoError(t, err)
		assert.True(t, available)
	})

	t.Run("taken username is not, regardless of case", func(t *testing.T) {
		available, err := svc.CheckUsername("ALICE")
		require.NoError(t, err)
		assert.False(t, available)
	})

	t.Run("malformed username is rejected", func(t *testing.T) {
		available, err := svc.CheckUsername("has space")
		assert.ErrorIs(t, err, ErrInvalidUsername)
		assert.False(t, available)
	})
}

func TestUpdateProfile(t *testing.T) {
	setup := func(t *testing.T) (ProfileService, *fakeProfileRepo) {
		repo := newFakeProfileRepo()
		svc := NewProfileService(repo, nil)
		_, err := svc.CreateProfile("u1", CreateProfileInput{Name: "Alice", Username: "alice"})
		require.NoError(t, err)
		return svc, repo
	}

	t.Run("nil fields stay untouched", func(t *testing.T) {
		svc, _ := setup(t)

		bio := "I rate ramen"
		profile, err := svc.UpdateProfile("u1", UpdateProfileInput{Bio: &bio})
		require.NoError(t, err)
		assert.Equal(t, "Alice", profile.Name)
		assert.Equal(t, "alice", profile.Username)
		require.NotNil(t, profile.Bio)
		assert.Equal(t, bio, *profile.Bio)
	})

	t.Run("keeping your own username is not a conflict", func(t *testing.T) {
		svc, _ := setup(t)

		same := "alice"
		_, err := svc.UpdateProfile("u1", UpdateProfileInput{Username: &same})
		assert.NoError(t, err)
	})

	t.Run("changing to a taken username fails", func(t *testing.T) {
		svc, _ := setup(t)
		_, err := svc.CreateProfile("u2", CreateProfileInput{Name: "Bob", Username: "bob"})
		require.NoError(t, err)

		taken := "bob"
		_, err = svc.UpdateProfile("u1", UpdateProfileInput{Username: &taken})
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("unknown user fails", func(t *testing.T) {
		svc, _ := setup(t)

		_, err := svc.UpdateProfile("ghost", UpdateProfileInput{})
		assert.ErrorIs(t, err, ErrProfileNotFound)
	})
}

func TestSearchUsers(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := NewProfileService(repo, nil)
	repo.add("u1", "Alice", 0, 0)
	repo.add("u2", "Alicia", 0, 0)
	repo.add("u3", "Bob", 0, 0)

	results, err := svc.SearchUsers("ali", "u1", 10)
	require.NoError(t, err)
	// The caller is excluded from their own results
	require.Len(t, results, 1)
	assert.Equal(t, "u2", results[0].UserID)

	// Blank queries return nothing rather than everything
	results, err = svc.SearchUsers("   ", "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
