package waas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fmueller/voxcaption/internal/multipart"
	"github.com/fmueller/voxcaption/internal/stt"
	"go.uber.org/zap"
)

const (
	headerRetry   = "X-Request-Retry"
	audioMimeType = "audio/wav"
	// maxErrorBody bounds the response snippet attached to errors.
	maxErrorBody  = 512
	maxStatusBody = 1024
)

// Client speaks the WaaS HTTP API. It holds no per-job state and is safe for
// concurrent use.
type Client struct {
	host           string
	retry          int
	requestTimeout time.Duration
	http           *http.Client
	logger         *zap.Logger
}

// NewClient returns a client for host. Every call is bounded by
// requestTimeout; httpClient may be nil.
func NewClient(host string, retry int, requestTimeout time.Duration, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		host:           strings.TrimRight(host, "/"),
		retry:          retry,
		requestTimeout: requestTimeout,
		http:           httpClient,
		logger:         logger,
	}
}

type submitResponse struct {
	ID string `json:"id"`
}

// Submit uploads audioPath with the language code and returns the job id.
func (c *Client) Submit(ctx context.Context, language, audioPath string) (string, error) {
	body, err := multipart.Encode([]multipart.Field{
		{Name: "languageCode", Content: multipart.Text(language)},
		{Name: "audioFile", Filename: filepath.Base(audioPath), ContentType: audioMimeType, Content: multipart.File(audioPath)},
	})
	if err != nil {
		return "", &stt.Error{Kind: stt.ErrSubmission, Engine: EngineName, Op: "encode request", Err: err}
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	reader := body.Reader()
	defer reader.Close()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.endpoint("waas", "transcribe"), reader)
	if err != nil {
		return "", &stt.Error{Kind: stt.ErrSubmission, Engine: EngineName, Op: "submit", Err: err}
	}
	req.ContentLength = body.Length
	req.Header.Set("Content-Type", body.ContentType)
	c.setHeaders(req, "application/json")

	c.logger.Debug("submitting transcription job",
		zap.String("url", req.URL.String()),
		zap.String("language", language),
		zap.Int64("content_length", body.Length),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", c.transportError(ctx, stt.ErrSubmission, "submit", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return "", statusError(stt.ErrSubmission, "submit", "", resp)
	}

	var decoded submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &stt.Error{Kind: stt.ErrSubmission, Engine: EngineName, Op: "decode job", StatusCode: resp.StatusCode, Err: err}
	}
	if strings.TrimSpace(decoded.ID) == "" {
		return "", stt.Errorf(stt.ErrSubmission, EngineName, "decode job", "response carries no job id")
	}

	return decoded.ID, nil
}

// Status returns the server reported state of job id.
func (c *Client) Status(ctx context.Context, id string) (State, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, c.endpoint("waas", "job", id, "status"), nil)
	if err != nil {
		return 0, &stt.Error{Kind: stt.ErrPolling, Engine: EngineName, Op: "status", JobID: id, Err: err}
	}
	c.setHeaders(req, "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, c.transportError(ctx, stt.ErrPolling, "status", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, statusError(stt.ErrPolling, "status", id, resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStatusBody))
	if err != nil {
		return 0, c.transportError(ctx, stt.ErrPolling, "read status", id, err)
	}
	state, err := decodeState(body)
	if err != nil {
		return 0, &stt.Error{Kind: stt.ErrPolling, Engine: EngineName, Op: "decode status", JobID: id, StatusCode: resp.StatusCode, Output: stt.TrimOutput(string(body)), Err: err}
	}
	return state, nil
}

// Result streams the caption file of job id into dest and returns the
// number of bytes written. dest is removed again if the download fails.
func (c *Client) Result(ctx context.Context, id, dest string) (int64, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, c.endpoint("waas", "job", id, "result"), nil)
	if err != nil {
		return 0, &stt.Error{Kind: stt.ErrResultFetch, Engine: EngineName, Op: "result", JobID: id, Err: err}
	}
	c.setHeaders(req, "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, c.transportError(ctx, stt.ErrResultFetch, "result", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, statusError(stt.ErrResultFetch, "result", id, resp)
	}

	out, err := os.Create(dest)
	if err != nil {
		return 0, &stt.Error{Kind: stt.ErrResultFetch, Engine: EngineName, Op: "create result file", JobID: id, Err: err}
	}

	written, copyErr := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(dest)
		if stt.IsCancellation(ctx.Err()) {
			return 0, stt.Cancelled(EngineName, "result", ctx.Err())
		}
		return 0, &stt.Error{Kind: stt.ErrResultFetch, Engine: EngineName, Op: "write result file", JobID: id, StatusCode: resp.StatusCode, Err: err}
	}

	return written, nil
}

func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.requestTimeout)
}

func (c *Client) setHeaders(req *http.Request, accept string) {
	req.Header.Set("Accept", accept)
	req.Header.Set(headerRetry, strconv.Itoa(c.retry))
}

func (c *Client) endpoint(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, segment := range segments {
		escaped[i] = url.PathEscape(segment)
	}
	return c.host + "/" + strings.Join(escaped, "/")
}

// transportError classifies a failed round trip. ctx is the caller's
// context: its cancellation aborts the request, while an expired per-call
// timeout is a failure of the phase.
func (c *Client) transportError(ctx context.Context, kind error, op, id string, err error) error {
	if stt.IsCancellation(ctx.Err()) {
		return &stt.Error{Kind: stt.ErrCancelled, Engine: EngineName, Op: op, JobID: id, Err: ctx.Err()}
	}
	return &stt.Error{Kind: kind, Engine: EngineName, Op: op, JobID: id, Err: err}
}

func statusError(kind error, op, id string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &stt.Error{
		Kind:       kind,
		Engine:     EngineName,
		Op:         op,
		JobID:      id,
		StatusCode: resp.StatusCode,
		Err:        fmt.Errorf("unexpected status %s", resp.Status),
		Output:     strings.TrimSpace(string(snippet)),
	}
}
