// Package walks moves guest-mode walk data into an authenticated account.
//
// A guest walk is recorded entirely on-device. Once the user signs in, the
// migration saga pushes it to the backend in three steps with per-step
// failure policy: creating the walk record is the only hard requirement;
// track upload and finalization are best-effort.
package walks

import (
	"time"

	"github.com/pawtrail/pawtrail-go/client"
)

// Coordinate is a single GPS sample captured during a guest walk.
type Coordinate struct {
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
}

// GuestWalk is a locally buffered walk recorded without an account. It is
// produced by the tracking screens and consumed here as an opaque payload.
type GuestWalk struct {
	LocalID          string       `json:"local_id,omitempty"`
	Title            string       `json:"title,omitempty"`
	Notes            string       `json:"notes,omitempty"`
	StartLatitude    float64      `json:"start_latitude"`
	StartLongitude   float64      `json:"start_longitude"`
	DurationSeconds  int64        `json:"duration_seconds"`
	DistanceMeters   float64      `json:"distance_meters"`
	RouteCoordinates []Coordinate `json:"route_coordinates,omitempty"`
}

func (w GuestWalk) trackPoints() []client.TrackPoint {
	points := make([]client.TrackPoint, len(w.RouteCoordinates))
	for i, c := range w.RouteCoordinates {
		points[i] = client.TrackPoint{
			Latitude:   c.Latitude,
			Longitude:  c.Longitude,
			RecordedAt: c.RecordedAt,
		}
	}
	return points
}
