package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/tubebrief/tubebrief/internal/config"
	"github.com/tubebrief/tubebrief/internal/presenter"
)

// TokenFileName is the fixed credential file name inside the auth directory.
const TokenFileName = "google-oauth.json"

const defaultUserinfoURL = "https://www.googleapis.com/oauth2/v1/userinfo?alt=json"

// State describes where the credential manager is in its lifecycle.
type State int

const (
	// StateNone means no credential is held; sign-in is required.
	StateNone State = iota
	// StatePendingExchange means a code exchange is in flight.
	StatePendingExchange
	// StateAuthenticated means a live credential and identity are held.
	StateAuthenticated
	// StateExpired means a credential was held but has passed its expiry.
	StateExpired
)

// Manager owns the Credential and Identity aggregates. All access-token
// state lives here; other components obtain tokens through CurrentToken and
// are notified of transitions through the presenter.
type Manager struct {
	cfg        *config.Config
	httpClient *http.Client
	present    presenter.Presenter
	google     *GoogleAuth

	userinfoURL string
	exchangeURL string

	mu             sync.Mutex
	state          State
	token          *TokenStorage
	identity       *presenter.Identity
	exchangedCodes map[string]bool
}

// NewManager creates a credential manager. The HTTP client should already
// carry any proxy configuration.
func NewManager(cfg *config.Config, httpClient *http.Client, p presenter.Presenter) *Manager {
	return &Manager{
		cfg:            cfg,
		httpClient:     httpClient,
		present:        p,
		google:         NewGoogleAuth(cfg),
		userinfoURL:    defaultUserinfoURL,
		exchangeURL:    strings.TrimRight(cfg.BackendBaseURL, "/") + "/auth",
		state:          StateNone,
		exchangedCodes: make(map[string]bool),
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Identity returns the signed-in user's presentational identity, or nil.
func (m *Manager) Identity() *presenter.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return nil
	}
	ident := *m.identity
	return &ident
}

func (m *Manager) tokenFilePath() string {
	return filepath.Join(m.cfg.AuthDir, TokenFileName)
}

// Initialize inspects the credential sources in priority order: a redirect
// fragment token, a redirect authorization code, then the persisted token
// file. Exactly one source is consulted per startup; redirect artifacts are
// one-shot (the callback result is drained once) so they cannot be replayed.
// If no source yields a live credential the manager signals sign-in.
func (m *Manager) Initialize(ctx context.Context, callback *CallbackResult) error {
	switch {
	case callback != nil && callback.AccessToken != "":
		return m.adoptToken(ctx, callback.AccessToken, callback.ExpiresIn)
	case callback != nil && callback.Code != "":
		return m.ExchangeCode(ctx, callback.Code)
	default:
		return m.initializeFromFile()
	}
}

// initializeFromFile restores a persisted credential without any network
// call. A missing or expired file leaves the manager signed out.
func (m *Manager) initializeFromFile() error {
	ts, err := LoadTokenFromFile(m.tokenFilePath())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Debugf("could not load persisted credential: %v", err)
		}
		m.mu.Lock()
		m.state = StateNone
		m.token = nil
		m.identity = nil
		m.mu.Unlock()
		m.present.ShowSignIn()
		return nil
	}

	if !ts.Valid(time.Now()) {
		log.Info("Persisted credential has expired")
		m.mu.Lock()
		m.state = StateExpired
		m.token = nil
		m.identity = nil
		m.mu.Unlock()
		m.present.ShowSignIn()
		return nil
	}

	ident := &presenter.Identity{DisplayName: ts.Name, AvatarURL: ts.Picture}
	m.mu.Lock()
	m.state = StateAuthenticated
	m.token = ts
	m.identity = ident
	m.mu.Unlock()
	m.present.ShowAuthenticated(*ident)
	return nil
}

// BeginLogin runs the browser sign-in flow and consumes its result. Control
// returns only after the redirect is captured or the flow times out.
func (m *Manager) BeginLogin(ctx context.Context) error {
	result, err := m.google.Login(ctx)
	if err != nil {
		m.present.ShowSignIn()
		return err
	}
	return m.Initialize(ctx, result)
}

// adoptToken installs a token captured directly from the redirect fragment
// (implicit flow), persists it, and resolves the identity.
func (m *Manager) adoptToken(ctx context.Context, accessToken string, expiresIn int) error {
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	ts := &TokenStorage{
		AccessToken: accessToken,
		Expire:      time.Now().Add(time.Duration(expiresIn) * time.Second).Format(time.RFC3339),
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.token = ts
	m.identity = nil
	m.mu.Unlock()

	if err := ts.SaveTokenToFile(m.tokenFilePath()); err != nil {
		return err
	}
	return m.FetchIdentity(ctx)
}

// ExchangeCode calls the backend's code-exchange endpoint and installs the
// resulting credential. It is idempotent-safe against duplicate invocation
// from double-fired redirect handling: a code is exchanged at most once.
// On failure any partial state is discarded and sign-in is signaled.
func (m *Manager) ExchangeCode(ctx context.Context, code string) error {
	m.mu.Lock()
	if m.exchangedCodes[code] {
		m.mu.Unlock()
		log.Debug("Ignoring duplicate code exchange")
		return nil
	}
	m.exchangedCodes[code] = true
	m.state = StatePendingExchange
	m.mu.Unlock()

	body, err := buildExchangeBody(code, m.google.RedirectURI())
	if err != nil {
		return m.failExchange(&ExchangeError{Err: err})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.exchangeURL, strings.NewReader(body))
	if err != nil {
		return m.failExchange(&ExchangeError{Err: err})
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return m.failExchange(&ExchangeError{Err: err})
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return m.failExchange(&ExchangeError{Err: err})
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return m.failExchange(&ExchangeError{StatusCode: resp.StatusCode, Body: string(respBody)})
	}

	accessToken := gjson.GetBytes(respBody, "access_token").String()
	expiresIn := int(gjson.GetBytes(respBody, "expires_in").Int())
	if accessToken == "" {
		return m.failExchange(&ExchangeError{StatusCode: resp.StatusCode, Body: "response missing access_token"})
	}

	return m.adoptToken(ctx, accessToken, expiresIn)
}

// failExchange discards partial state and routes the user back to sign-in.
func (m *Manager) failExchange(exchangeErr *ExchangeError) error {
	log.Errorf("Code exchange failed: %v", exchangeErr)
	m.mu.Lock()
	m.state = StateNone
	m.token = nil
	m.identity = nil
	m.mu.Unlock()
	m.present.ShowSignIn()
	return exchangeErr
}

// FetchIdentity resolves the user's display name and avatar from the
// userinfo endpoint using the bearer token. An authorization failure is
// treated as implicit revocation and triggers Logout rather than a retry.
func (m *Manager) FetchIdentity(ctx context.Context) error {
	token, err := m.CurrentToken()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.userinfoURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		// Network failure: stay authenticated and greet without a name.
		log.Warnf("Failed to fetch user identity: %v", err)
		m.notifyAuthenticated()
		return nil
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		log.Info("Token rejected by userinfo endpoint, signing out")
		m.Logout()
		return ErrUnauthenticated
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warnf("Userinfo request failed with status %d: %s", resp.StatusCode, string(respBody))
		m.notifyAuthenticated()
		return nil
	}

	name := gjson.GetBytes(respBody, "name").String()
	picture := gjson.GetBytes(respBody, "picture").String()
	email := gjson.GetBytes(respBody, "email").String()

	m.mu.Lock()
	if m.token != nil {
		m.token.Name = name
		m.token.Picture = picture
		m.token.Email = email
		ts := *m.token
		m.identity = &presenter.Identity{DisplayName: name, AvatarURL: picture}
		m.mu.Unlock()
		// Persist the identity so a reload reproduces the authenticated
		// state without a network call.
		if errSave := ts.SaveTokenToFile(m.tokenFilePath()); errSave != nil {
			log.Warnf("Failed to persist identity: %v", errSave)
		}
	} else {
		m.mu.Unlock()
	}

	m.notifyAuthenticated()
	return nil
}

// notifyAuthenticated emits a single authenticated-UI notification with the
// best identity available.
func (m *Manager) notifyAuthenticated() {
	m.mu.Lock()
	var ident presenter.Identity
	if m.identity != nil {
		ident = *m.identity
	}
	m.mu.Unlock()
	m.present.ShowAuthenticated(ident)
}

// Logout clears the persisted credential, transitions to signed-out, and
// signals sign-in. The token and its expiry are cleared together.
func (m *Manager) Logout() {
	if err := os.Remove(m.tokenFilePath()); err != nil && !os.IsNotExist(err) {
		log.Warnf("Failed to remove credential file: %v", err)
	}

	m.mu.Lock()
	m.state = StateNone
	m.token = nil
	m.identity = nil
	m.mu.Unlock()
	m.present.ShowSignIn()
}

// CurrentToken returns the live access token. It fails with
// ErrUnauthenticated when no credential is held or the held one has passed
// its expiry, even if a token string is still stored. An expiry discovered
// here transitions the manager to expired and signals sign-in once.
func (m *Manager) CurrentToken() (string, error) {
	m.mu.Lock()
	if m.state != StateAuthenticated || m.token == nil {
		m.mu.Unlock()
		return "", ErrUnauthenticated
	}
	if !m.token.Valid(time.Now()) {
		m.state = StateExpired
		m.token = nil
		m.identity = nil
		m.mu.Unlock()
		m.present.ShowSignIn()
		return "", ErrUnauthenticated
	}
	token := m.token.AccessToken
	m.mu.Unlock()
	return token, nil
}

// HandleExternalCredentialChange re-reads the persisted credential after the
// auth file changed on disk outside this process (removed by another tool or
// rewritten by a second login). The state follows whatever is on disk now.
func (m *Manager) HandleExternalCredentialChange() {
	log.Debug("Credential file changed on disk, reloading")
	_ = m.initializeFromFile()
}

// buildExchangeBody constructs the JSON body for the backend code-exchange call.
func buildExchangeBody(code, redirectURI string) (string, error) {
	body, err := sjson.Set("", "code", code)
	if err != nil {
		return "", fmt.Errorf("failed to build exchange body: %w", err)
	}
	body, err = sjson.Set(body, "redirect_uri", redirectURI)
	if err != nil {
		return "", fmt.Errorf("failed to build exchange body: %w", err)
	}
	return body, nil
}
