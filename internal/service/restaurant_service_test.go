package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRestaurant(t *testing.T) {
	t.Run("creates a restaurant", func(t *testing.T) {
		svc := NewRestaurantService(newFakeRestaurantRepo())

		restaurant, err := svc.CreateRestaurant(CreateRestaurantInput{
			Name:      "Ramen Nagi",
			Address:   "1 Noodle St",
			Latitude:  35.6,
			Longitude: 139.7,
			Cuisine:   []string{"japanese", "ramen"},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, restaurant.ID)
		assert.Equal(t, []string{"japanese", "ramen"}, restaurant.GetCuisine())
	})

	t.Run("rejects out-of-range coordinates", func(t *testing.T) {
		svc := NewRestaurantService(newFakeRestaurantRepo())

		for _, input := range []CreateRestaurantInput{
			{Name: "X", Address: "Y", Latitude: 91, Longitude: 0},
			{Name: "X", Address: "Y", Latitude: -91, Longitude: 0},
			{Name: "X", Address: "Y", Latitude: 0, Longitude: 181},
			{Name: "X", Address: "Y", Latitude: 0, Longitude: -181},
		} {
			_, err := svc.CreateRestaurant(input)
			assert.ErrorIs(t, err, ErrInvalidCoordinates)
		}
	})

	t.Run("reuses the row for a known google place id", func(t *testing.T) {
		svc := NewRestaurantService(newFakeRestaurantRepo())

		placeID := "ChIJ123"
		first, err := svc.CreateRestaurant(CreateRestaurantInput{
			Name: "Ramen Nagi", Address: "1 Noodle St", Latitude: 35.6, Longitude: 139.7, GooglePlaceID: &placeID,
		})
		require.NoError(t, err)

		second, err := svc.CreateRestaurant(CreateRestaurantInput{
			Name: "Ramen Nagi (dup)", Address: "1 Noodle St", Latitude: 35.6, Longitude: 139.7, GooglePlaceID: &placeID,
		})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})
}

func TestFindNearby(t *testing.T) {
	svc := NewRestaurantService(newFakeRestaurantRepo())

	t.Run("rejects bad coordinates", func(t *testing.T) {
		_, err := svc.FindNearby(200, 0, 5, 10)
		assert.ErrorIs(t, err, ErrInvalidCoordinates)
	})

	t.Run("tolerates zero radius and limit", func(t *testing.T) {
		_, err := svc.FindNearby(35.6, 139.7, 0, 0)
		assert.NoError(t, err)
	})
}

func TestGetRestaurant(t *testing.T) {
	repo := newFakeRestaurantRepo()
	svc := NewRestaurantService(repo)

	_, err := svc.GetRestaurant("nope")
	assert.ErrorIs(t, err, ErrRestaurantNotFound)
}
