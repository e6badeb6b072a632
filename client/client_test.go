package client_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawtrail/pawtrail-go/client"
)

func TestLogin(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, req *http.Request) {
		var body client.LoginRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body.Email)
		assert.NotEmpty(t, req.Header.Get("X-Request-ID"))

		json.NewEncoder(w).Encode(client.TokenPair{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
		})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := client.New(srv.URL)
	pair, err := c.Login(t.Context(), "a@b.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "access-1", pair.AccessToken)
	assert.Equal(t, "refresh-1", pair.RefreshToken)
}

func TestLogin_BadCredentials(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := client.New(srv.URL)
	_, err := c.Login(t.Context(), "a@b.com", "wrong-password")
	require.Error(t, err)

	var ae *client.APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusUnauthorized, ae.StatusCode)
	assert.Equal(t, "invalid credentials", ae.Message)
	assert.True(t, client.IsUnauthorized(err))
	assert.True(t, client.IsAuthRejected(err))
	assert.False(t, client.IsNetwork(err))
}

func TestNetworkErrorClassification(t *testing.T) {
	// A closed server produces a transport failure, not an HTTP response.
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := client.New(srv.URL)
	_, err := c.Login(t.Context(), "a@b.com", "password123")
	require.Error(t, err)
	assert.True(t, client.IsNetwork(err))
	assert.False(t, client.IsAuthRejected(err))
}

func TestMe_SendsBearerToken(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/users/me", func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(client.UserProfile{
			UserID:   "u-1",
			Username: "walker",
			Email:    "a@b.com",
		})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := client.New(srv.URL)
	profile, err := c.Me(t.Context(), "access-1")
	require.NoError(t, err)
	assert.Equal(t, "walker", profile.Username)

	_, err = c.Me(t.Context(), "stale-token")
	assert.True(t, client.IsUnauthorized(err))
}

func TestWalkEndpoints(t *testing.T) {
	var trackUploaded, stopped bool
	r := chi.NewRouter()
	r.Post("/walks", func(w http.ResponseWriter, req *http.Request) {
		var body client.CreateWalkRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "Morning loop", body.Title)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(client.CreateWalkResponse{WalkID: "walk-9"})
	})
	r.Post("/walks/{walkID}/track", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "walk-9", chi.URLParam(req, "walkID"))
		var body client.UploadTrackRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Len(t, body.Points, 2)
		trackUploaded = true
	})
	r.Post("/walks/{walkID}/stop", func(w http.ResponseWriter, req *http.Request) {
		var body client.StopWalkRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.EqualValues(t, 1200, body.DurationSeconds)
		stopped = true
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := client.New(srv.URL)
	ctx := t.Context()

	walkID, err := c.CreateWalk(ctx, "access-1", client.CreateWalkRequest{
		Title:          "Morning loop",
		StartLatitude:  52.52,
		StartLongitude: 13.405,
	})
	require.NoError(t, err)
	assert.Equal(t, "walk-9", walkID)

	err = c.UploadTrack(ctx, "access-1", walkID, []client.TrackPoint{
		{Latitude: 52.52, Longitude: 13.405},
		{Latitude: 52.521, Longitude: 13.406},
	})
	require.NoError(t, err)
	assert.True(t, trackUploaded)

	err = c.StopWalk(ctx, "access-1", walkID, client.StopWalkRequest{
		DurationSeconds: 1200,
		DistanceMeters:  1800,
	})
	require.NoError(t, err)
	assert.True(t, stopped)
}

func TestErrorMessageShapes(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		json.NewEncoder(w).Encode(map[string]string{"message": "strange brew"})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := client.New(srv.URL)
	_, err := c.Login(t.Context(), "a@b.com", "password123")

	var ae *client.APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "strange brew", ae.Message)
}
