package waas

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fmueller/voxcaption/internal/stt"
	"github.com/stretchr/testify/require"
)

func TestClientSubmitSendsExactContentLength(t *testing.T) {
	t.Parallel()

	service := newFakeService(t)
	server := service.start()

	audio := writeFile(t, filepath.Join(t.TempDir(), "clip.wav"), canonicalWAV())
	client := NewClient(server.URL+"/", 1, time.Second, nil, nil)

	id, err := client.Submit(context.Background(), "en", audio)
	require.NoError(t, err)
	require.Equal(t, "job-42", id)

	service.mu.Lock()
	defer service.mu.Unlock()
	require.Positive(t, service.contentLength)
	require.Equal(t, canonicalWAV(), service.uploads[0])
	require.Equal(t, []string{"1"}, service.retryHeaders)
}

func TestClientSubmitMissingAudio(t *testing.T) {
	t.Parallel()

	service := newFakeService(t)
	server := service.start()

	client := NewClient(server.URL, 1, time.Second, nil, nil)
	_, err := client.Submit(context.Background(), "en", filepath.Join(t.TempDir(), "missing.wav"))
	require.ErrorIs(t, err, stt.ErrSubmission)
	require.ErrorIs(t, err, os.ErrNotExist)

	submits, _, _ := service.counts()
	require.Zero(t, submits)
}

func TestClientSubmitWithoutJobID(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"status":"queued"}`))
	}))
	t.Cleanup(server.Close)

	audio := writeFile(t, filepath.Join(t.TempDir(), "clip.wav"), canonicalWAV())
	_, err := NewClient(server.URL, 0, time.Second, nil, nil).Submit(context.Background(), "en", audio)
	require.ErrorIs(t, err, stt.ErrSubmission)
}

func TestClientStatusErrorCarriesBodySnippet(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "job store unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	_, err := NewClient(server.URL, 0, time.Second, nil, nil).Status(context.Background(), "job-7")
	require.ErrorIs(t, err, stt.ErrPolling)

	var sttErr *stt.Error
	require.ErrorAs(t, err, &sttErr)
	require.Equal(t, "job-7", sttErr.JobID)
	require.Equal(t, http.StatusServiceUnavailable, sttErr.StatusCode)
	require.Equal(t, "job store unavailable", sttErr.Output)
}

func TestClientEscapesJobID(t *testing.T) {
	t.Parallel()

	paths := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.EscapedPath()
		_, _ = w.Write([]byte(`"PENDING"`))
	}))
	t.Cleanup(server.Close)

	state, err := NewClient(server.URL, 0, time.Second, nil, nil).Status(context.Background(), "a/b")
	require.NoError(t, err)
	require.Equal(t, StatePending, state)
	require.Equal(t, "/waas/job/a%2Fb/status", <-paths)
}

func TestClientResultWritesBodyVerbatim(t *testing.T) {
	t.Parallel()

	service := newFakeService(t)
	service.resultBody = "WEBVTT\r\n\r\n00:00.000 --> 00:02.000\r\nÜmlaut\r\n"
	server := service.start()

	dest := filepath.Join(t.TempDir(), "out.vtt")
	written, err := NewClient(server.URL, 0, time.Second, nil, nil).Result(context.Background(), "job-42", dest)
	require.NoError(t, err)
	require.EqualValues(t, len(service.resultBody), written)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, service.resultBody, string(data))
}
