// Package cmd provides command-line interface functionality for TubeBrief.
// It implements the main application commands including login/logout,
// history listing, and the summarization loop, wiring together the
// credential manager, the backend client, and the terminal presenter.
package cmd

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/tubebrief/tubebrief/internal/auth"
	"github.com/tubebrief/tubebrief/internal/config"
	"github.com/tubebrief/tubebrief/internal/presenter"
	"github.com/tubebrief/tubebrief/internal/util"
	log "github.com/sirupsen/logrus"
)

// DoLogin runs the interactive Google sign-in flow. It opens the browser,
// waits for the redirect to the local callback server, exchanges or adopts
// the returned credential, and persists it for future runs.
//
// Parameters:
//   - cfg: The application configuration
func DoLogin(cfg *config.Config) {
	p := presenter.NewTerminal(os.Stdout)
	manager := auth.NewManager(cfg, newHTTPClient(cfg), p)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.CallbackTimeout()+30*time.Second)
	defer cancel()

	log.Info("Initializing Google authentication...")
	if err := manager.BeginLogin(ctx); err != nil {
		log.Fatalf("failed to complete login: %v", err)
		return
	}
	log.Info("Authentication successful.")
}

// DoLogout removes the persisted credential so the next run starts signed out.
func DoLogout(cfg *config.Config) {
	p := presenter.NewTerminal(os.Stdout)
	manager := auth.NewManager(cfg, newHTTPClient(cfg), p)
	manager.Logout()
	log.Info("Credential cleared.")
}

// newHTTPClient builds the outbound HTTP client, honoring the configured
// proxy if one is set.
func newHTTPClient(cfg *config.Config) *http.Client {
	client := &http.Client{Timeout: 60 * time.Second}
	return util.SetProxy(cfg, client)
}
