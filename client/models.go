package client

import "time"

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair is returned from POST /auth/login and POST /auth/refresh.
// RefreshToken may be empty: the server is not required to issue one, and
// on refresh it may choose not to rotate.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// RefreshRequest is the JSON body for POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RegisterRequest is the JSON body for POST /users/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserProfile is returned from GET /users/me.
type UserProfile struct {
	UserID    string     `json:"user_id,omitempty"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// CreateWalkRequest is the JSON body for POST /walks.
type CreateWalkRequest struct {
	Title          string  `json:"title,omitempty"`
	Notes          string  `json:"notes,omitempty"`
	StartLatitude  float64 `json:"start_latitude"`
	StartLongitude float64 `json:"start_longitude"`
}

// CreateWalkResponse is returned from POST /walks.
type CreateWalkResponse struct {
	WalkID string `json:"walk_id"`
}

// TrackPoint is a single GPS sample in a walk's route.
type TrackPoint struct {
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
}

// UploadTrackRequest is the JSON body for POST /walks/{id}/track.
type UploadTrackRequest struct {
	Points []TrackPoint `json:"points"`
}

// StopWalkRequest is the JSON body for POST /walks/{id}/stop.
type StopWalkRequest struct {
	DurationSeconds int64   `json:"duration_seconds"`
	DistanceMeters  float64 `json:"distance_meters"`
}
