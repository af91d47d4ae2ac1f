package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// CallbackResult contains the outcome of the OAuth redirect, either an
// authorization code (code flow) or a token captured from the URL fragment
// (implicit flow). Exactly one of Code or AccessToken is set on success.
type CallbackResult struct {
	Code        string
	AccessToken string
	ExpiresIn   int
	State       string
	Error       string
}

// CallbackServer handles the local HTTP server for OAuth redirect callbacks.
// The redirect parameters are consumed exactly once through the result
// channel, so a token or code can never be replayed from a stale URL.
type CallbackServer struct {
	server     *http.Server
	port       int
	resultChan chan *CallbackResult
	errorChan  chan error
	mu         sync.Mutex
	running    bool
}

// NewCallbackServer creates a new OAuth callback server on the given port.
func NewCallbackServer(port int) *CallbackServer {
	return &CallbackServer{
		port:       port,
		resultChan: make(chan *CallbackResult, 1),
		errorChan:  make(chan error, 1),
	}
}

// Start starts the OAuth callback server.
func (s *CallbackServer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("callback server is already running")
	}

	if !s.isPortAvailable() {
		return fmt.Errorf("port %d is already in use", s.port)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/auth/callback", s.handleCallback)
	engine.GET("/auth/token", s.handleFragmentToken)
	engine.GET("/success", s.handleSuccess)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.running = true

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errorChan <- fmt.Errorf("callback server failed to start: %w", err)
		}
	}()

	// Give server a moment to start
	time.Sleep(100 * time.Millisecond)

	return nil
}

// Stop gracefully stops the OAuth callback server.
func (s *CallbackServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.server == nil {
		return nil
	}

	log.Debug("Stopping OAuth callback server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := s.server.Shutdown(shutdownCtx)
	s.running = false
	s.server = nil

	return err
}

// WaitForCallback waits for the OAuth redirect with a timeout.
func (s *CallbackServer) WaitForCallback(timeout time.Duration) (*CallbackResult, error) {
	select {
	case result := <-s.resultChan:
		return result, nil
	case err := <-s.errorChan:
		return nil, err
	case <-time.After(timeout):
		return nil, fmt.Errorf("timeout waiting for OAuth callback")
	}
}

// handleCallback handles the OAuth redirect endpoint. A code-flow redirect
// carries the authorization code in the query string and is consumed
// directly. An implicit-flow redirect carries the token in the URL fragment,
// which never reaches the server, so a relay page forwards it to /auth/token.
func (s *CallbackServer) handleCallback(c *gin.Context) {
	log.Debug("Received OAuth callback")

	if errParam := c.Query("error"); errParam != "" {
		log.Errorf("OAuth error received: %s", errParam)
		s.sendResult(&CallbackResult{Error: errParam})
		c.String(http.StatusBadRequest, "OAuth error: %s", errParam)
		return
	}

	if code := c.Query("code"); code != "" {
		s.sendResult(&CallbackResult{
			Code:  code,
			State: c.Query("state"),
		})
		c.Redirect(http.StatusFound, "/success")
		return
	}

	// No code and no error: assume implicit flow and serve the fragment relay.
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, fragmentRelayHTML)
}

// handleFragmentToken receives the token parameters relayed out of the URL
// fragment by the relay page.
func (s *CallbackServer) handleFragmentToken(c *gin.Context) {
	token := c.Query("access_token")
	if token == "" {
		log.Error("No access token received from fragment relay")
		s.sendResult(&CallbackResult{Error: "no_token"})
		c.String(http.StatusBadRequest, "No access token received")
		return
	}

	expiresIn, err := strconv.Atoi(c.Query("expires_in"))
	if err != nil || expiresIn <= 0 {
		expiresIn = 3600
	}

	s.sendResult(&CallbackResult{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		State:       c.Query("state"),
	})
	c.Redirect(http.StatusFound, "/success")
}

// handleSuccess serves the final page shown in the browser after sign-in.
func (s *CallbackServer) handleSuccess(c *gin.Context) {
	log.Debug("Serving success page")
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, loginSuccessHTML)
}

// sendResult sends the OAuth result to the waiting channel.
func (s *CallbackServer) sendResult(result *CallbackResult) {
	select {
	case s.resultChan <- result:
		log.Debug("OAuth result sent to channel")
	default:
		log.Warn("OAuth result channel is full, result dropped")
	}
}

// isPortAvailable checks if the configured port is available.
func (s *CallbackServer) isPortAvailable() bool {
	addr := fmt.Sprintf(":%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return false
	}
	defer func() {
		_ = listener.Close()
	}()
	return true
}

// IsRunning returns whether the server is currently running.
func (s *CallbackServer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// fragmentRelayHTML forwards implicit-flow parameters from the URL fragment
// to /auth/token, then scrubs the fragment from the address bar.
const fragmentRelayHTML = `<!DOCTYPE html>
<html>
<head><title>Signing in...</title></head>
<body>
<p>Completing sign-in...</p>
<script>
(function() {
  var hash = window.location.hash.replace(/^#/, "");
  if (!hash) {
    document.body.textContent = "Sign-in failed: no credentials in redirect.";
    return;
  }
  history.replaceState(null, "", window.location.pathname);
  window.location.replace("/auth/token?" + hash);
})();
</script>
</body>
</html>`

const loginSuccessHTML = `<!DOCTYPE html>
<html>
<head><title>Signed in</title></head>
<body>
<h1>Sign-in successful!</h1>
<p>You can close this window and return to the terminal.</p>
</body>
</html>`
