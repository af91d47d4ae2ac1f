package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubebrief/tubebrief/internal/config"
	"github.com/tubebrief/tubebrief/internal/presenter"
)

// recordingPresenter captures notifications so tests can assert on the
// exact sequence the manager emits.
type recordingPresenter struct {
	mu         sync.Mutex
	signIns    int
	authed     []presenter.Identity
	fatals     []string
	validation []string
}

func (p *recordingPresenter) ShowSignIn() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signIns++
}

func (p *recordingPresenter) ShowAuthenticated(identity presenter.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.authed = append(p.authed, identity)
}

func (p *recordingPresenter) ShowValidationError(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.validation = append(p.validation, message)
}

func (p *recordingPresenter) ShowProgress(stepText string, percent int) {}

func (p *recordingPresenter) ShowResult(title, summaryText, videoID string) {}

func (p *recordingPresenter) ShowFatalError(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fatals = append(p.fatals, message)
}

func (p *recordingPresenter) signInCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signIns
}

func (p *recordingPresenter) authedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.authed)
}

func newTestManager(t *testing.T, backendURL string) (*Manager, *recordingPresenter) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.AuthDir = t.TempDir()
	if backendURL != "" {
		cfg.BackendBaseURL = backendURL
	}
	p := &recordingPresenter{}
	m := NewManager(cfg, &http.Client{}, p)
	return m, p
}

func TestInitialize_NoCredentialSignalsSignIn(t *testing.T) {
	m, p := newTestManager(t, "")

	err := m.Initialize(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, StateNone, m.State())
	assert.Equal(t, 1, p.signInCount())
	assert.Equal(t, 0, p.authedCount())
}

func TestInitialize_ExpiredStoredTokenSignalsSignIn(t *testing.T) {
	m, p := newTestManager(t, "")

	ts := &TokenStorage{
		AccessToken: "stale-token",
		Expire:      time.Now().Add(-time.Hour).Format(time.RFC3339),
	}
	require.NoError(t, ts.SaveTokenToFile(m.tokenFilePath()))

	err := m.Initialize(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, StateExpired, m.State())
	assert.Equal(t, 1, p.signInCount())
	assert.Equal(t, 0, p.authedCount())

	_, err = m.CurrentToken()
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestInitialize_PersistedTokenRoundTripWithoutNetwork(t *testing.T) {
	m, p := newTestManager(t, "http://127.0.0.1:1") // unreachable: no call may happen

	ts := &TokenStorage{
		AccessToken: "live-token",
		Expire:      time.Now().Add(time.Hour).Format(time.RFC3339),
		Name:        "Ada Lovelace",
		Picture:     "https://example.com/ada.png",
	}
	require.NoError(t, ts.SaveTokenToFile(m.tokenFilePath()))

	err := m.Initialize(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, StateAuthenticated, m.State())
	require.Equal(t, 1, p.authedCount())
	assert.Equal(t, "Ada Lovelace", p.authed[0].DisplayName)

	token, err := m.CurrentToken()
	require.NoError(t, err)
	assert.Equal(t, "live-token", token)
}

func TestExchangeCode_SuccessAuthenticates(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh-token","expires_in":3600}`))
	}))
	defer backend.Close()

	userinfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer fresh-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"Grace Hopper","picture":"https://example.com/grace.png","email":"grace@example.com"}`))
	}))
	defer userinfo.Close()

	m, p := newTestManager(t, backend.URL)
	m.userinfoURL = userinfo.URL

	err := m.ExchangeCode(context.Background(), "auth-code-1")
	require.NoError(t, err)

	assert.Equal(t, StateAuthenticated, m.State())
	require.Equal(t, 1, p.authedCount())
	assert.Equal(t, "Grace Hopper", p.authed[0].DisplayName)

	token, err := m.CurrentToken()
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)

	// The identity must be persisted so a restart skips the network.
	reloaded, err := LoadTokenFromFile(m.tokenFilePath())
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", reloaded.Name)
}

func TestExchangeCode_FailureRoutesToSignIn(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Token exchange failed"}`, http.StatusBadRequest)
	}))
	defer backend.Close()

	m, p := newTestManager(t, backend.URL)

	err := m.ExchangeCode(context.Background(), "bad-code")
	require.Error(t, err)

	var exchangeErr *ExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Equal(t, http.StatusBadRequest, exchangeErr.StatusCode)

	assert.Equal(t, StateNone, m.State())
	assert.Equal(t, 1, p.signInCount())

	_, err = m.CurrentToken()
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestExchangeCode_DuplicateInvocationIsNoOp(t *testing.T) {
	var calls int
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh-token","expires_in":3600}`))
	}))
	defer backend.Close()

	userinfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"Grace"}`))
	}))
	defer userinfo.Close()

	m, _ := newTestManager(t, backend.URL)
	m.userinfoURL = userinfo.URL

	require.NoError(t, m.ExchangeCode(context.Background(), "double-fired"))
	require.NoError(t, m.ExchangeCode(context.Background(), "double-fired"))

	assert.Equal(t, 1, calls)
}

func TestFetchIdentity_AuthFailureTriggersLogout(t *testing.T) {
	userinfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer userinfo.Close()

	m, p := newTestManager(t, "")
	m.userinfoURL = userinfo.URL

	ts := &TokenStorage{
		AccessToken: "revoked-token",
		Expire:      time.Now().Add(time.Hour).Format(time.RFC3339),
	}
	require.NoError(t, ts.SaveTokenToFile(m.tokenFilePath()))
	require.NoError(t, m.Initialize(context.Background(), nil))

	err := m.FetchIdentity(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, StateNone, m.State())
	assert.Equal(t, 1, p.signInCount())

	// The credential file must be gone.
	_, err = LoadTokenFromFile(m.tokenFilePath())
	assert.Error(t, err)
}

func TestCurrentToken_ExpiryDiscoveredAtCallTime(t *testing.T) {
	m, p := newTestManager(t, "")

	// RFC3339 drops fractional seconds, so keep the expiry a full two
	// seconds out to make the first read reliably succeed.
	ts := &TokenStorage{
		AccessToken: "short-lived",
		Expire:      time.Now().Add(2 * time.Second).Format(time.RFC3339),
	}
	require.NoError(t, ts.SaveTokenToFile(m.tokenFilePath()))
	require.NoError(t, m.Initialize(context.Background(), nil))

	token, err := m.CurrentToken()
	require.NoError(t, err)
	assert.Equal(t, "short-lived", token)

	time.Sleep(3 * time.Second)

	_, err = m.CurrentToken()
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, StateExpired, m.State())
	assert.Equal(t, 1, p.signInCount())
}

func TestLogout_ClearsEverythingTogether(t *testing.T) {
	m, p := newTestManager(t, "")

	ts := &TokenStorage{
		AccessToken: "live-token",
		Expire:      time.Now().Add(time.Hour).Format(time.RFC3339),
	}
	require.NoError(t, ts.SaveTokenToFile(m.tokenFilePath()))
	require.NoError(t, m.Initialize(context.Background(), nil))

	m.Logout()

	assert.Equal(t, StateNone, m.State())
	assert.Nil(t, m.Identity())
	assert.Equal(t, 1, p.signInCount())
	_, err := LoadTokenFromFile(m.tokenFilePath())
	assert.Error(t, err)
}

func TestInitialize_FragmentTokenAdopted(t *testing.T) {
	userinfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"Implicit User"}`))
	}))
	defer userinfo.Close()

	m, p := newTestManager(t, "")
	m.userinfoURL = userinfo.URL

	err := m.Initialize(context.Background(), &CallbackResult{
		AccessToken: "fragment-token",
		ExpiresIn:   1800,
	})
	require.NoError(t, err)

	assert.Equal(t, StateAuthenticated, m.State())
	require.Equal(t, 1, p.authedCount())

	token, err := m.CurrentToken()
	require.NoError(t, err)
	assert.Equal(t, "fragment-token", token)
}
