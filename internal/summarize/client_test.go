package summarize

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Submit_ImmediateResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/summary/dQw4w9WgXcQ", r.URL.Path)
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"status":"completed","videoTitle":"A Video","summary":"The gist."}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, http.DefaultClient)
	result, err := client.Submit(context.Background(), "tok-1", "dQw4w9WgXcQ")
	require.NoError(t, err)

	assert.True(t, result.Completed())
	assert.Equal(t, "A Video", result.Title)
	assert.Equal(t, "The gist.", result.Summary)
}

func TestClient_Submit_AsyncJobAccepted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"processing","jobId":"j1"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, http.DefaultClient)
	result, err := client.Submit(context.Background(), "tok-1", "dQw4w9WgXcQ")
	require.NoError(t, err)

	assert.False(t, result.Completed())
	assert.Equal(t, "j1", result.JobID)
}

func TestClient_Submit_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"No accessible content found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, http.DefaultClient)
	_, err := client.Submit(context.Background(), "tok-1", "dQw4w9WgXcQ")
	require.Error(t, err)

	var submissionErr *SubmissionError
	require.ErrorAs(t, err, &submissionErr)
	assert.Equal(t, http.StatusNotFound, submissionErr.StatusCode)
}

func TestClient_Submit_UnreachableBackend(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", http.DefaultClient)
	_, err := client.Submit(context.Background(), "tok-1", "dQw4w9WgXcQ")
	require.Error(t, err)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Contains(t, transportErr.Endpoint, "/summary/dQw4w9WgXcQ")
}

func TestClient_Submit_EmptyResponseRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, http.DefaultClient)
	_, err := client.Submit(context.Background(), "tok-1", "dQw4w9WgXcQ")

	var submissionErr *SubmissionError
	require.ErrorAs(t, err, &submissionErr)
}

func TestClient_Status(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus string
	}{
		{"processing", `{"status":"processing","videoTitle":"T"}`, StatusProcessing},
		{"completed", `{"status":"completed","videoTitle":"T","summary":"S"}`, StatusCompleted},
		{"failed", `{"status":"failed"}`, StatusFailed},
		{"not found", `{"status":"not_found"}`, StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "j1", r.URL.Query().Get("jobId"))
				require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, http.DefaultClient)
			result, err := client.Status(context.Background(), "tok-1", "j1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, result.Status)
		})
	}
}

func TestClient_Status_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, http.DefaultClient)
	_, err := client.Status(context.Background(), "tok-1", "j1")

	var pollingErr *PollingError
	require.ErrorAs(t, err, &pollingErr)
	assert.Equal(t, "j1", pollingErr.JobID)
}
