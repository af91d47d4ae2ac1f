package auth

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/tubebrief/tubebrief/internal/browser"
	"github.com/tubebrief/tubebrief/internal/config"
	"github.com/tubebrief/tubebrief/internal/misc"
)

const defaultOAuthClientID = "681255809395-oo8ft2oprdrnp9e3aqf6av3hmdib135j.apps.googleusercontent.com"

var oauthScopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// GoogleAuth drives the browser-based Google sign-in: it builds the
// authorization URL, runs the local callback server, and hands the captured
// redirect parameters back to the caller. The actual code-for-token exchange
// happens against the backend, not here.
type GoogleAuth struct {
	cfg *config.Config
}

// NewGoogleAuth creates a new GoogleAuth.
func NewGoogleAuth(cfg *config.Config) *GoogleAuth {
	return &GoogleAuth{cfg: cfg}
}

// RedirectURI returns the local redirect address registered with the OAuth client.
func (ga *GoogleAuth) RedirectURI() string {
	return fmt.Sprintf("http://localhost:%d/auth/callback", ga.cfg.CallbackPort)
}

// clientID returns the configured OAuth client id, falling back to the
// built-in one.
func (ga *GoogleAuth) clientID() string {
	if ga.cfg.OAuthClientID != "" {
		return ga.cfg.OAuthClientID
	}
	return defaultOAuthClientID
}

// authCodeURL constructs the Google authorization redirect with the fixed
// client identifier, local return address, profile+email scopes, and a
// forced consent prompt.
func (ga *GoogleAuth) authCodeURL(state string) string {
	conf := &oauth2.Config{
		ClientID:    ga.clientID(),
		RedirectURL: ga.RedirectURI(),
		Scopes:      oauthScopes,
		Endpoint:    google.Endpoint,
	}
	return conf.AuthCodeURL(state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Login performs the full browser sign-in round trip and returns the
// captured redirect result. The caller is responsible for exchanging a code
// or adopting a fragment token.
func (ga *GoogleAuth) Login(ctx context.Context) (*CallbackResult, error) {
	state, err := misc.GenerateRandomState()
	if err != nil {
		return nil, err
	}

	server := NewCallbackServer(ga.cfg.CallbackPort)
	if err = server.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}
	defer func() {
		if errStop := server.Stop(ctx); errStop != nil {
			log.Debugf("error stopping callback server: %v", errStop)
		}
	}()

	authURL := ga.authCodeURL(state)
	log.Info("Opening browser for Google sign-in...")
	if err = browser.OpenURL(authURL); err != nil {
		log.Warnf("Failed to open browser automatically: %v", err)
		log.Infof("Please open this URL manually:\n\n%s\n", authURL)
	}

	result, err := server.WaitForCallback(ga.cfg.CallbackTimeout())
	if err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, fmt.Errorf("authorization failed: %s", result.Error)
	}
	if result.State != state {
		return nil, fmt.Errorf("state mismatch in OAuth callback")
	}
	return result, nil
}
