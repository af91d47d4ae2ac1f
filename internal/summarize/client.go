// Package summarize drives a summarization attempt against the remote
// backend: job submission, status polling with cancellable timers, cosmetic
// progress pacing, and terminal-state reporting.
package summarize

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Job status values reported by the backend.
const (
	StatusCompleted  = "completed"
	StatusProcessing = "processing"
	StatusFailed     = "failed"
	StatusNotFound   = "not_found"
)

// SubmitResult is the outcome of a submission call: either an immediate
// summary or an accepted asynchronous job.
type SubmitResult struct {
	Status  string
	JobID   string
	Title   string
	Summary string
}

// Completed reports whether the submission resolved immediately.
func (r *SubmitResult) Completed() bool {
	return r.Status == StatusCompleted && r.Summary != ""
}

// StatusResult is one status-poll response.
type StatusResult struct {
	Status  string
	Title   string
	Summary string
}

// Client talks to the summarization backend. It attaches the caller's bearer
// token to every request and never retries on its own.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Submit asks the backend to summarize the given video.
// A transport-level failure is reported as a *TransportError so callers can
// surface the unreachable-endpoint condition honestly.
func (c *Client) Submit(ctx context.Context, token, videoID string) (*SubmitResult, error) {
	endpoint := fmt.Sprintf("%s/summary/%s", c.baseURL, url.PathEscape(videoID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &SubmissionError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	log.Debugf("submission response: %s", string(body))

	result := &SubmitResult{
		Status:  gjson.GetBytes(body, "status").String(),
		JobID:   gjson.GetBytes(body, "jobId").String(),
		Title:   gjson.GetBytes(body, "videoTitle").String(),
		Summary: gjson.GetBytes(body, "summary").String(),
	}
	if result.Title == "" {
		result.Title = gjson.GetBytes(body, "title").String()
	}
	if !result.Completed() && result.JobID == "" {
		return nil, &SubmissionError{StatusCode: resp.StatusCode, Body: "response carried neither a summary nor a jobId"}
	}
	return result, nil
}

// Status fetches the current state of an asynchronous job.
func (c *Client) Status(ctx context.Context, token, jobID string) (*StatusResult, error) {
	endpoint := fmt.Sprintf("%s/status?jobId=%s", c.baseURL, url.QueryEscape(jobID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &PollingError{JobID: jobID, Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(body))}
	}

	log.Debugf("status response: %s", string(body))

	return &StatusResult{
		Status:  gjson.GetBytes(body, "status").String(),
		Title:   gjson.GetBytes(body, "videoTitle").String(),
		Summary: gjson.GetBytes(body, "summary").String(),
	}, nil
}
