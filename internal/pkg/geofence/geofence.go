// Package geofence decides whether a coordinate falls inside any of a branch's
// circular fences.
package geofence

import (
	"errors"
	"math"
)

const earthRadius = 6371000 // meters

var ErrInvalidCoordinate = errors.New("invalid coordinate")

type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// Fence is a circle around a branch location.
type Fence struct {
	ID           string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

type Policy struct {
	RequireCoordinate bool
}

// Result of a geofence check. MinDistanceMeters is only meaningful when
// HasFence is true.
type Result struct {
	Inside            bool
	HasFence          bool
	NearestFenceID    string
	MinDistanceMeters float64
}

func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// Distance returns the great-circle distance between two points in meters.
func Distance(a, b Coordinate) float64 {
	dLat := (b.Latitude - a.Latitude) * (math.Pi / 180.0)
	dLon := (b.Longitude - a.Longitude) * (math.Pi / 180.0)

	lat1Rad := a.Latitude * (math.Pi / 180.0)
	lat2Rad := b.Latitude * (math.Pi / 180.0)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadius * c
}

// Validate checks c against every fence. A nil coordinate is allowed unless
// the policy requires one, in which case the result is outside.
func Validate(fences []Fence, c *Coordinate, policy Policy) (Result, error) {
	if c == nil {
		if policy.RequireCoordinate {
			return Result{}, ErrInvalidCoordinate
		}
		return Result{}, nil
	}
	if !c.Valid() {
		return Result{}, ErrInvalidCoordinate
	}

	var res Result
	for _, f := range fences {
		d := Distance(*c, Coordinate{Latitude: f.Latitude, Longitude: f.Longitude})
		if !res.HasFence || d < res.MinDistanceMeters {
			res.MinDistanceMeters = d
			res.NearestFenceID = f.ID
		}
		res.HasFence = true
		if d <= f.RadiusMeters {
			res.Inside = true
		}
	}

	return res, nil
}
