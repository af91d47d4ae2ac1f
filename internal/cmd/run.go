package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tubebrief/tubebrief/internal/auth"
	"github.com/tubebrief/tubebrief/internal/config"
	"github.com/tubebrief/tubebrief/internal/history"
	"github.com/tubebrief/tubebrief/internal/parser"
	"github.com/tubebrief/tubebrief/internal/presenter"
	"github.com/tubebrief/tubebrief/internal/summarize"
	"github.com/tubebrief/tubebrief/internal/watcher"
	log "github.com/sirupsen/logrus"
)

// RunSummarize is the main entry point of the client. It restores the
// persisted credential (triggering the OAuth flow if necessary), then
// summarizes the given URL, or prompts for URLs interactively when none
// is provided. After each summary a small intent loop supports `copy`,
// `save`, `new` and `quit`.
//
// Parameters:
//   - cfg: The application configuration
//   - rawURL: The video URL to summarize, or "" for interactive mode
func RunSummarize(cfg *config.Config, rawURL string) {
	p := presenter.NewTerminal(os.Stdout)
	httpClient := newHTTPClient(cfg)
	manager := auth.NewManager(cfg, httpClient, p)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := manager.Initialize(ctx, nil); err != nil {
		log.Fatalf("failed to restore credential: %v", err)
		return
	}

	// Trigger the sign-in flow if no live credential was restored.
	if manager.State() != auth.StateAuthenticated {
		log.Info("Initializing Google authentication...")
		if err := manager.BeginLogin(ctx); err != nil {
			log.Fatalf("failed to complete login: %v", err)
			return
		}
	}

	store := history.NewStore(cfg.HistoryFile)
	backend := summarize.NewClient(cfg.BackendBaseURL, httpClient)
	orchestrator := summarize.NewOrchestrator(backend, manager, p, store,
		cfg.PollInterval(), cfg.ProgressStepInterval())

	// Pick up credential changes made by a concurrent login or logout.
	w, err := watcher.NewWatcher(cfg.AuthDir, auth.TokenFileName, manager.HandleExternalCredentialChange)
	if err != nil {
		log.Warnf("credential watcher unavailable: %v", err)
	} else if err = w.Start(ctx); err != nil {
		log.Warnf("credential watcher failed to start: %v", err)
	} else {
		defer func() {
			_ = w.Stop()
		}()
	}

	// Set up graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Debug("Received shutdown signal. Cleaning up...")
		cancel()
		os.Exit(0)
	}()

	in := bufio.NewScanner(os.Stdin)

	if rawURL != "" {
		if summarizeOne(ctx, orchestrator, p, rawURL) {
			intentLoop(in, orchestrator)
		}
		return
	}

	for {
		fmt.Print("Enter a YouTube URL (or quit): ")
		if !in.Scan() {
			return
		}
		line := strings.TrimSpace(in.Text())
		switch line {
		case "":
			continue
		case "quit", "exit":
			return
		}

		if summarizeOne(ctx, orchestrator, p, line) {
			if !intentLoop(in, orchestrator) {
				return
			}
		}
		orchestrator.Reset()
	}
}

// summarizeOne parses the URL, submits it and blocks until the job reaches
// a terminal state. It reports whether the intent loop should run.
func summarizeOne(ctx context.Context, o *summarize.Orchestrator, p presenter.Presenter, rawURL string) bool {
	ref, err := parser.Parse(rawURL)
	if err != nil {
		p.ShowValidationError(err.Error())
		return false
	}

	if err = o.Submit(ctx, ref); err != nil {
		log.Errorf("submission failed: %v", err)
		return false
	}

	for {
		switch o.State() {
		case summarize.StateCompleted, summarize.StateFailed:
			return o.State() == summarize.StateCompleted
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(200 * time.Millisecond):
		}
	}
}

// intentLoop handles the post-summary commands. It returns false when the
// user asked to quit, true when they asked for a new summary.
func intentLoop(in *bufio.Scanner, o *summarize.Orchestrator) bool {
	for {
		fmt.Print("[new | copy | save | quit] > ")
		if !in.Scan() {
			return false
		}

		job := o.CurrentJob()
		switch strings.TrimSpace(in.Text()) {
		case "new":
			return true
		case "quit", "exit":
			return false
		case "copy":
			if job == nil {
				continue
			}
			fmt.Println(job.Summary)
		case "save":
			if job == nil {
				continue
			}
			name := fmt.Sprintf("%s-summary.txt", job.VideoID)
			if err := os.WriteFile(name, []byte(job.Summary), 0644); err != nil {
				log.Errorf("failed to save summary: %v", err)
				continue
			}
			log.Infof("Summary saved to %s", name)
		}
	}
}
