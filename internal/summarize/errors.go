package summarize

import (
	"errors"
	"fmt"
)

// ErrJobFailed is reported when the backend marks a job as failed.
var ErrJobFailed = errors.New("the backend could not process this video")

// ErrSummaryNotFound is reported when the backend has neither a summary nor
// an ongoing job for the requested video.
var ErrSummaryNotFound = errors.New("no summary or processing job found for this video")

// TransportError means the backend boundary could not be reached at all.
// It carries the endpoint so the diagnostic shown to the user is actionable
// rather than a fabricated result.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("could not reach the summarization backend at %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// SubmissionError means the job could not be created. Terminal for the
// attempt; there is no automatic retry.
type SubmissionError struct {
	StatusCode int
	Body       string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission failed with status %d: %s", e.StatusCode, e.Body)
}

// PollingError means a status check failed. Terminal for the current job;
// the next job must be resubmitted fresh.
type PollingError struct {
	JobID string
	Err   error
}

func (e *PollingError) Error() string {
	return fmt.Sprintf("status check for job %s failed: %v", e.JobID, e.Err)
}

func (e *PollingError) Unwrap() error {
	return e.Err
}
