// Package auth owns the access-token lifecycle for the TubeBrief client:
// acquisition through the Google OAuth2 redirect flows, persistence to disk,
// expiry tracking, identity lookup, and revocation. It handles token storage
// serialization and retrieval for maintaining an authenticated session
// across process restarts.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tubebrief/tubebrief/internal/misc"
)

// TokenStorage defines the structure for storing the OAuth2 access token
// along with its expiry and the user details resolved from it. This data is
// serialized to a JSON file for persistence.
type TokenStorage struct {
	// AccessToken is the OAuth2 access token for backend access
	AccessToken string `json:"access_token"`
	// Expire is the absolute expiry timestamp of the token, RFC3339
	Expire string `json:"expired"`
	// Email is the Google account email
	Email string `json:"email,omitempty"`
	// Name is the user's display name, for UI personalization only
	Name string `json:"name,omitempty"`
	// Picture is the user's avatar URL, for UI personalization only
	Picture string `json:"picture,omitempty"`
	// Type indicates the authentication provider type, always "google" for this storage.
	Type string `json:"type"`
}

// SaveTokenToFile serializes the token storage to a JSON file.
// This method creates the necessary directory structure and writes the token
// data in JSON format to the specified file path. It ensures the file is
// properly closed after writing.
//
// Parameters:
//   - authFilePath: The full path where the token file should be saved
//
// Returns:
//   - error: An error if the operation fails, nil otherwise
func (ts *TokenStorage) SaveTokenToFile(authFilePath string) error {
	misc.LogSavingCredentials(authFilePath)
	ts.Type = "google"
	if err := os.MkdirAll(filepath.Dir(authFilePath), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %v", err)
	}

	f, err := os.Create(authFilePath)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() {
		if errClose := f.Close(); errClose != nil {
			log.Errorf("failed to close file: %v", errClose)
		}
	}()

	if err = json.NewEncoder(f).Encode(ts); err != nil {
		return fmt.Errorf("failed to write token to file: %w", err)
	}
	return nil
}

// LoadTokenFromFile reads a previously persisted token storage from disk.
func LoadTokenFromFile(authFilePath string) (*TokenStorage, error) {
	data, err := os.ReadFile(authFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	var ts TokenStorage
	if err = json.Unmarshal(data, &ts); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return &ts, nil
}

// ExpiryTime parses the stored expiry timestamp.
func (ts *TokenStorage) ExpiryTime() (time.Time, error) {
	if ts.Expire == "" {
		return time.Time{}, fmt.Errorf("token has no expiry")
	}
	return time.Parse(time.RFC3339, ts.Expire)
}

// Valid reports whether the token is usable at the given instant.
// An unparsable or missing expiry makes the token invalid.
func (ts *TokenStorage) Valid(now time.Time) bool {
	if ts.AccessToken == "" {
		return false
	}
	expiry, err := ts.ExpiryTime()
	if err != nil {
		return false
	}
	return now.Before(expiry)
}
