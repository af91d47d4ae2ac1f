package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStorage_SaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "google-oauth.json")

	ts := &TokenStorage{
		AccessToken: "round-trip-token",
		Expire:      time.Now().Add(time.Hour).Format(time.RFC3339),
		Email:       "user@example.com",
		Name:        "User",
		Picture:     "https://example.com/u.png",
	}
	require.NoError(t, ts.SaveTokenToFile(path))

	loaded, err := LoadTokenFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "round-trip-token", loaded.AccessToken)
	assert.Equal(t, "user@example.com", loaded.Email)
	assert.Equal(t, "google", loaded.Type)
	assert.True(t, loaded.Valid(time.Now()))
}

func TestTokenStorage_Valid(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		ts   TokenStorage
		want bool
	}{
		{"live", TokenStorage{AccessToken: "t", Expire: now.Add(time.Hour).Format(time.RFC3339)}, true},
		{"expired", TokenStorage{AccessToken: "t", Expire: now.Add(-time.Hour).Format(time.RFC3339)}, false},
		{"exactly now", TokenStorage{AccessToken: "t", Expire: now.Format(time.RFC3339)}, false},
		{"no expiry", TokenStorage{AccessToken: "t"}, false},
		{"garbage expiry", TokenStorage{AccessToken: "t", Expire: "tomorrowish"}, false},
		{"no token", TokenStorage{Expire: now.Add(time.Hour).Format(time.RFC3339)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ts.Valid(now))
		})
	}
}
