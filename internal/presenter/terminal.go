package presenter

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var _ Presenter = (*Terminal)(nil)

// Terminal renders orchestrator notifications as timestamped lines on a
// writer. Progress updates overwrite a single line so long waits don't
// scroll the screen.
type Terminal struct {
	w io.Writer

	mu           sync.Mutex
	progressOpen bool
	lastStep     string
}

// NewTerminal creates a terminal presenter writing to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

func (t *Terminal) stamp() string {
	return time.Now().Format("15:04:05")
}

// closeProgressLocked terminates an in-place progress line before other output.
func (t *Terminal) closeProgressLocked() {
	if t.progressOpen {
		fmt.Fprintln(t.w)
		t.progressOpen = false
	}
}

// ShowSignIn presents the sign-in prompt.
func (t *Terminal) ShowSignIn() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeProgressLocked()
	fmt.Fprintf(t.w, "[%s] Not signed in. Run with --login to sign in with Google.\n", t.stamp())
}

// ShowAuthenticated greets the signed-in user.
func (t *Terminal) ShowAuthenticated(identity Identity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeProgressLocked()
	name := identity.DisplayName
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(t.w, "[%s] Signed in. Welcome, %s!\n", t.stamp(), name)
}

// ShowValidationError surfaces an inline input problem.
func (t *Terminal) ShowValidationError(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeProgressLocked()
	fmt.Fprintf(t.w, "[%s] Invalid input: %s\n", t.stamp(), message)
}

// ShowProgress rewrites the progress line in place.
func (t *Terminal) ShowProgress(stepText string, percent int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "\r[%s] %-40s %3d%%", t.stamp(), stepText, percent)
	t.progressOpen = true
	t.lastStep = stepText
}

// ShowResult renders the completed summary.
func (t *Terminal) ShowResult(title, summaryText, videoID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeProgressLocked()
	if title == "" {
		title = "Summary"
	}
	fmt.Fprintf(t.w, "\n%s\n", title)
	fmt.Fprintln(t.w, strings.Repeat("=", len(title)))
	fmt.Fprintf(t.w, "video: https://www.youtube.com/watch?v=%s\n\n", videoID)
	fmt.Fprintln(t.w, summaryText)
	fmt.Fprintln(t.w)
}

// ShowFatalError surfaces a terminal failure for the current operation.
func (t *Terminal) ShowFatalError(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeProgressLocked()
	fmt.Fprintf(t.w, "[%s] Error: %s\n", t.stamp(), message)
}
