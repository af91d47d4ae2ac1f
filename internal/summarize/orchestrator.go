package summarize

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tubebrief/tubebrief/internal/parser"
	"github.com/tubebrief/tubebrief/internal/presenter"
)

// State describes where the orchestrator is in a summarization attempt.
type State int

const (
	// StateIdle means no job is active; the input surface is current.
	StateIdle State = iota
	// StateSubmitting means the submission call is in flight.
	StateSubmitting
	// StatePolling means an accepted job is being polled.
	StatePolling
	// StateCompleted means the last job finished and its summary was rendered.
	StateCompleted
	// StateFailed means the last job ended in a reported failure.
	StateFailed
)

// Job is the single active summarization attempt. Exactly one job exists at
// a time; starting a new one discards the previous one.
type Job struct {
	JobID   string
	VideoID string
	Title   string
	Summary string
}

// TokenSource supplies a live bearer token or fails with an
// authentication error. The orchestrator checks it before every network call.
type TokenSource interface {
	CurrentToken() (string, error)
}

// Recorder receives completed summaries, for the local history store.
type Recorder interface {
	Record(videoID, title, summary string) error
}

// progressSteps is the fixed ordered sequence of step descriptions shown
// while a job runs. This is cosmetic pacing, not a measurement of backend
// progress; the percentage stays below 100 until a real terminal result.
var progressSteps = []string{
	"Fetching video details",
	"Extracting captions",
	"Transcribing audio",
	"Generating summary",
	"Polishing the result",
}

// progressCeiling caps the simulated percentage until real completion.
const progressCeiling = 90

const statusCallTimeout = 30 * time.Second

// Orchestrator owns the active job and drives it from
// submission through completion. All timers are keyed by a generation
// counter: bumping the generation cancels every outstanding loop, and late
// responses tagged with a stale generation are discarded instead of being
// applied to the new job.
type Orchestrator struct {
	client   *Client
	tokens   TokenSource
	present  presenter.Presenter
	recorder Recorder

	pollInterval time.Duration
	stepInterval time.Duration

	mu          sync.Mutex
	state       State
	job         *Job
	generation  uint64
	progressIdx int
	progressPct int
}

// NewOrchestrator creates a job orchestrator. recorder may be nil when no
// history store is configured.
func NewOrchestrator(client *Client, tokens TokenSource, p presenter.Presenter, recorder Recorder, pollInterval, stepInterval time.Duration) *Orchestrator {
	return &Orchestrator{
		client:       client,
		tokens:       tokens,
		present:      p,
		recorder:     recorder,
		pollInterval: pollInterval,
		stepInterval: stepInterval,
		state:        StateIdle,
	}
}

// State returns the current orchestrator state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// CurrentJob returns a copy of the active job, or nil.
func (o *Orchestrator) CurrentJob() *Job {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.job == nil {
		return nil
	}
	job := *o.job
	return &job
}

// Submit starts a summarization attempt for the given video reference.
// It requires a live token up front; without one it fails with the
// token source's authentication error and no network call is made.
//
// The submission call has three outcomes: an immediate summary, an accepted
// asynchronous job (polling starts), or a failure that is surfaced as a
// diagnostic terminal state. An unreachable backend is reported as exactly
// that; no result is ever fabricated from a transport failure.
func (o *Orchestrator) Submit(ctx context.Context, ref parser.VideoReference) error {
	token, err := o.tokens.CurrentToken()
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.generation++
	gen := o.generation
	o.state = StateSubmitting
	o.job = &Job{VideoID: ref.ID()}
	o.progressIdx = 0
	o.progressPct = 0
	o.mu.Unlock()

	o.present.ShowProgress(progressSteps[0], 0)
	go o.runProgressSimulation(gen)

	result, err := o.client.Submit(ctx, token, ref.ID())
	if err != nil {
		var transportErr *TransportError
		if errors.As(err, &transportErr) {
			// Degraded fallback: the backend boundary is unreachable.
			// Report the condition as the terminal content.
			o.fail(gen, transportErr.Error())
			return err
		}
		o.fail(gen, "could not start summarization: "+err.Error())
		return err
	}

	if result.Completed() {
		o.complete(gen, result.Title, result.Summary)
		return nil
	}

	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		return nil
	}
	o.state = StatePolling
	o.job.JobID = result.JobID
	o.mu.Unlock()

	log.Infof("Job %s accepted, polling for completion", result.JobID)
	go o.runPollingLoop(gen, result.JobID)
	return nil
}

// Reset discards the active job, stops every timer, and returns to idle
// with the input surface current. Calling it again from idle is a no-op:
// nothing is notified and no generation is burned.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateIdle {
		return
	}
	o.generation++
	o.state = StateIdle
	o.job = nil
	o.progressIdx = 0
	o.progressPct = 0
}

// stale reports whether gen belongs to a torn-down job.
func (o *Orchestrator) stale(gen uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return gen != o.generation
}

// runProgressSimulation advances the cosmetic step text and percentage on a
// timer until the job reaches a terminal state or is torn down.
func (o *Orchestrator) runProgressSimulation(gen uint64) {
	ticker := time.NewTicker(o.stepInterval)
	defer ticker.Stop()

	for range ticker.C {
		o.mu.Lock()
		if gen != o.generation || (o.state != StateSubmitting && o.state != StatePolling) {
			o.mu.Unlock()
			return
		}
		if o.progressIdx < len(progressSteps)-1 {
			o.progressIdx++
		}
		o.progressPct += 15
		if o.progressPct > progressCeiling {
			o.progressPct = progressCeiling
		}
		step := progressSteps[o.progressIdx]
		pct := o.progressPct
		o.mu.Unlock()

		o.present.ShowProgress(step, pct)
	}
}

// runPollingLoop issues a status request on a fixed interval until the job
// resolves. A transport error on any single tick is fatal for the job; the
// next job must be resubmitted fresh.
func (o *Orchestrator) runPollingLoop(gen uint64, jobID string) {
	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for range ticker.C {
		if o.stale(gen) {
			return
		}
		if done := o.pollOnce(gen, jobID); done {
			return
		}
	}
}

// pollOnce performs a single status check and applies its outcome. It
// returns true when the polling loop should stop.
func (o *Orchestrator) pollOnce(gen uint64, jobID string) bool {
	token, err := o.tokens.CurrentToken()
	if err != nil {
		o.fail(gen, "your session expired while the video was processing; please sign in and try again")
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), statusCallTimeout)
	result, err := o.client.Status(ctx, token, jobID)
	cancel()
	if err != nil {
		o.fail(gen, (&PollingError{JobID: jobID, Err: err}).Error())
		return true
	}

	switch result.Status {
	case StatusCompleted:
		o.complete(gen, result.Title, result.Summary)
		return true
	case StatusFailed:
		o.fail(gen, ErrJobFailed.Error())
		return true
	case StatusNotFound:
		o.fail(gen, ErrSummaryNotFound.Error())
		return true
	default:
		// Still processing; wait for the next tick.
		return false
	}
}

// complete applies a terminal success: progress snaps to 100, the summary is
// rendered, and the result is recorded in history. Stale generations are
// discarded.
func (o *Orchestrator) complete(gen uint64, title, summary string) {
	o.mu.Lock()
	if gen != o.generation || o.job == nil {
		o.mu.Unlock()
		return
	}
	o.state = StateCompleted
	o.job.Title = title
	o.job.Summary = summary
	videoID := o.job.VideoID
	o.mu.Unlock()

	o.present.ShowProgress("Summary ready", 100)
	o.present.ShowResult(title, summary, videoID)

	if o.recorder != nil {
		if err := o.recorder.Record(videoID, title, summary); err != nil {
			log.Warnf("Failed to record summary in history: %v", err)
		}
	}
}

// fail applies a terminal failure with a user-facing message. Stale
// generations are discarded.
func (o *Orchestrator) fail(gen uint64, message string) {
	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		return
	}
	o.state = StateFailed
	o.mu.Unlock()

	o.present.ShowFatalError(message)
}
