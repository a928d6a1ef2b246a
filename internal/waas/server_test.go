package waas

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeService is a scripted WaaS deployment. Status requests consume
// states in order and repeat the last one.
type fakeService struct {
	t *testing.T

	mu           sync.Mutex
	jobID        string
	submitStatus int
	states       []string
	statusCode   int
	resultStatus int
	resultBody   string

	submits       int
	polls         int
	fetches       int
	languages     []string
	filenames     []string
	uploads       [][]byte
	fieldOrder    []string
	retryHeaders  []string
	acceptHeaders map[string]string
	contentLength int64
}

func newFakeService(t *testing.T) *fakeService {
	t.Helper()

	return &fakeService{
		t:             t,
		jobID:         "job-42",
		submitStatus:  http.StatusAccepted,
		states:        []string{jsonState("COMPLETED")},
		statusCode:    http.StatusOK,
		resultStatus:  http.StatusOK,
		resultBody:    "WEBVTT\n\n00:00.000 --> 00:01.000\nHello",
		acceptHeaders: make(map[string]string),
	}
}

func (f *fakeService) start() *httptest.Server {
	f.t.Helper()

	server := httptest.NewServer(f)
	f.t.Cleanup(server.Close)
	return server
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.retryHeaders = append(f.retryHeaders, r.Header.Get(headerRetry))

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/waas/transcribe":
		f.submits++
		f.acceptHeaders["submit"] = r.Header.Get("Accept")
		f.contentLength = r.ContentLength
		if err := f.readUpload(r); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.submitStatus)
		if f.submitStatus == http.StatusAccepted {
			_ = json.NewEncoder(w).Encode(map[string]string{"id": f.jobID})
		}
	case r.Method == http.MethodGet && r.URL.Path == "/waas/job/"+f.jobID+"/status":
		f.polls++
		f.acceptHeaders["status"] = r.Header.Get("Accept")
		if f.statusCode != http.StatusOK {
			w.WriteHeader(f.statusCode)
			return
		}
		state := f.states[0]
		if len(f.states) > 1 {
			f.states = f.states[1:]
		}
		_, _ = io.WriteString(w, state)
	case r.Method == http.MethodGet && r.URL.Path == "/waas/job/"+f.jobID+"/result":
		f.fetches++
		f.acceptHeaders["result"] = r.Header.Get("Accept")
		w.WriteHeader(f.resultStatus)
		if f.resultStatus == http.StatusOK {
			_, _ = io.WriteString(w, f.resultBody)
		}
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeService) readUpload(r *http.Request) error {
	reader, err := r.MultipartReader()
	if err != nil {
		return err
	}

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		data, err := io.ReadAll(part)
		if err != nil {
			return err
		}
		f.fieldOrder = append(f.fieldOrder, part.FormName())

		switch part.FormName() {
		case "languageCode":
			f.languages = append(f.languages, string(data))
		case "audioFile":
			if ct := part.Header.Get("Content-Type"); ct != audioMimeType {
				return fmt.Errorf("audio content type %q", ct)
			}
			f.filenames = append(f.filenames, part.FileName())
			f.uploads = append(f.uploads, data)
		}
	}
}

func (f *fakeService) counts() (submits, polls, fetches int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submits, f.polls, f.fetches
}

func jsonState(name string) string {
	return `"` + name + `"`
}

func writeFile(t *testing.T, path string, data []byte) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// canonicalWAV returns a header-only mono 16 kHz PCM16 WAV.
func canonicalWAV() []byte {
	out := make([]byte, 44)
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], 36)
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1)
	binary.LittleEndian.PutUint16(out[22:], 1)
	binary.LittleEndian.PutUint32(out[24:], 16000)
	binary.LittleEndian.PutUint32(out[28:], 32000)
	binary.LittleEndian.PutUint16(out[32:], 2)
	binary.LittleEndian.PutUint16(out[34:], 16)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], 0)
	return out
}
