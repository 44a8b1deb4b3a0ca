package geofence

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jakartaOffice = Fence{ID: "hq", Latitude: -6.2088, Longitude: 106.8456, RadiusMeters: 100}

func TestValidate_SamePointIsInside(t *testing.T) {
	res, err := Validate([]Fence{jakartaOffice}, &Coordinate{Latitude: -6.2088, Longitude: 106.8456}, Policy{})
	require.NoError(t, err)

	assert.True(t, res.Inside)
	assert.True(t, res.HasFence)
	assert.Equal(t, "hq", res.NearestFenceID)
	assert.InDelta(t, 0, res.MinDistanceMeters, 0.001)
}

func TestValidate_OutsideRadius(t *testing.T) {
	// ~0.01 degrees of latitude is about 1.1 km
	res, err := Validate([]Fence{jakartaOffice}, &Coordinate{Latitude: -6.1988, Longitude: 106.8456}, Policy{})
	require.NoError(t, err)

	assert.False(t, res.Inside)
	assert.InDelta(t, 1112, res.MinDistanceMeters, 5)
}

func TestValidate_BoundaryIsInclusive(t *testing.T) {
	c := Coordinate{Latitude: -6.2088, Longitude: 106.8466}
	d := Distance(c, Coordinate{Latitude: jakartaOffice.Latitude, Longitude: jakartaOffice.Longitude})

	fence := jakartaOffice
	fence.RadiusMeters = d

	res, err := Validate([]Fence{fence}, &c, Policy{})
	require.NoError(t, err)
	assert.True(t, res.Inside)
}

func TestValidate_AnyFenceMatches(t *testing.T) {
	far := Fence{ID: "bandung", Latitude: -6.9175, Longitude: 107.6191, RadiusMeters: 200}

	res, err := Validate([]Fence{far, jakartaOffice}, &Coordinate{Latitude: -6.20885, Longitude: 106.84565}, Policy{})
	require.NoError(t, err)

	assert.True(t, res.Inside)
	assert.Equal(t, "hq", res.NearestFenceID)
}

func TestValidate_NoFences(t *testing.T) {
	res, err := Validate(nil, &Coordinate{Latitude: 1, Longitude: 1}, Policy{})
	require.NoError(t, err)

	assert.False(t, res.Inside)
	assert.False(t, res.HasFence)
}

func TestValidate_InvalidCoordinates(t *testing.T) {
	cases := []Coordinate{
		{Latitude: 91, Longitude: 0},
		{Latitude: -90.5, Longitude: 0},
		{Latitude: 0, Longitude: 180.1},
		{Latitude: 0, Longitude: -181},
		{Latitude: math.NaN(), Longitude: 0},
	}
	for _, c := range cases {
		_, err := Validate([]Fence{jakartaOffice}, &c, Policy{})
		assert.ErrorIs(t, err, ErrInvalidCoordinate, "coordinate %+v", c)
	}
}

func TestValidate_MissingCoordinate(t *testing.T) {
	res, err := Validate([]Fence{jakartaOffice}, nil, Policy{})
	require.NoError(t, err)
	assert.False(t, res.Inside)

	_, err = Validate([]Fence{jakartaOffice}, nil, Policy{RequireCoordinate: true})
	assert.ErrorIs(t, err, ErrInvalidCoordinate)
}
