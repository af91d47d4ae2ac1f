// Package watcher provides file system monitoring for the credential file.
// It watches the auth directory so a credential removed or rewritten by
// another process (a second login, a manual sign-out) is picked up without a
// restart.
package watcher

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watcher monitors the auth directory for credential file changes.
type Watcher struct {
	authDir        string
	credentialFile string
	changeCallback func()
	watcher        *fsnotify.Watcher
}

// NewWatcher creates a watcher for the named credential file inside authDir.
// changeCallback is invoked whenever the file is created, rewritten, or
// removed.
func NewWatcher(authDir, credentialFile string, changeCallback func()) (*Watcher, error) {
	watcher, errNewWatcher := fsnotify.NewWatcher()
	if errNewWatcher != nil {
		return nil, errNewWatcher
	}

	return &Watcher{
		authDir:        authDir,
		credentialFile: credentialFile,
		changeCallback: changeCallback,
		watcher:        watcher,
	}, nil
}

// Start begins watching the auth directory until ctx is canceled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.authDir, 0o700); err != nil {
		return err
	}
	if err := w.watcher.Add(w.authDir); err != nil {
		log.Errorf("failed to watch auth directory %s: %v", w.authDir, err)
		return err
	}
	log.Debugf("watching auth directory: %s", w.authDir)

	go w.watchLoop(ctx)
	return nil
}

// Stop stops the watcher and releases its resources.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("file watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != w.credentialFile {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	log.Debugf("credential file event: %s %s", event.Op, event.Name)
	if w.changeCallback != nil {
		w.changeCallback()
	}
}
