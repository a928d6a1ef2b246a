// Package waas drives a remote Whisper-as-a-Service deployment through its
// asynchronous job API: submit the audio, poll the job until it finishes,
// then download the WebVTT result.
package waas

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fmueller/voxcaption/internal/audio"
	"github.com/fmueller/voxcaption/internal/language"
	"github.com/fmueller/voxcaption/internal/stt"
	"go.uber.org/zap"
)

// EngineName identifies the WaaS engine.
const EngineName = "waas"

const (
	// DefaultPollInterval is the wait between two status requests.
	DefaultPollInterval = 10 * time.Second
	progressEvery       = 60 * time.Second
)

// Config is the engine configuration, fixed at construction.
type Config struct {
	Host  string
	Retry int
	// Timeout bounds the total time spent waiting for the job.
	Timeout time.Duration
	// RequestTimeout bounds every single HTTP call.
	RequestTimeout   time.Duration
	FallbackLanguage string
	AutoEncode       bool
}

// Normalizer converts a media file into a canonical WAV inside workDir.
type Normalizer interface {
	Normalize(ctx context.Context, src, workDir string) (string, error)
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Engine transcribes by running one remote job per request. Requests share
// only the read-only configuration and the HTTP client.
type Engine struct {
	cfg        Config
	client     *Client
	normalizer Normalizer
	logger     *zap.Logger

	// PollInterval and Sleep replace the wall clock in tests.
	PollInterval time.Duration
	Sleep        SleepFunc
}

var _ stt.Engine = (*Engine)(nil)

// NewEngine returns a WaaS engine. normalizer may be nil when AutoEncode is
// off; httpClient may be nil.
func NewEngine(cfg Config, normalizer Normalizer, httpClient *http.Client, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("waas host is required")
	}
	if cfg.Timeout <= 0 {
		return nil, errors.New("waas timeout must be positive")
	}
	if cfg.AutoEncode && normalizer == nil {
		return nil, errors.New("auto encoding requires an audio normalizer")
	}

	logger = logger.Named(EngineName)
	return &Engine{
		cfg:          cfg,
		client:       NewClient(cfg.Host, cfg.Retry, cfg.RequestTimeout, httpClient, logger),
		normalizer:   normalizer,
		logger:       logger,
		PollInterval: DefaultPollInterval,
		Sleep:        sleepContext,
	}, nil
}

func (e *Engine) Name() string {
	return EngineName
}

// Host returns the configured service URL.
func (e *Engine) Host() string {
	return e.client.host
}

// Generate submits the request's media as a job, waits for it and writes the
// returned captions to the output path.
func (e *Engine) Generate(ctx context.Context, req stt.Request) (stt.Result, error) {
	if err := req.Validate(); err != nil {
		return stt.Result{}, err
	}

	outputPath, err := filepath.Abs(req.ResolvedOutputPath())
	if err != nil {
		return stt.Result{}, fmt.Errorf("resolve output path: %w", err)
	}
	mediaPath, err := filepath.Abs(req.MediaPath)
	if err != nil {
		return stt.Result{}, fmt.Errorf("resolve media path: %w", err)
	}

	input, cleanup, err := e.prepareInput(ctx, mediaPath, filepath.Dir(outputPath))
	if err != nil {
		return stt.Result{}, err
	}
	defer cleanup()

	lang := language.Resolve(req.Language, e.cfg.FallbackLanguage)
	if req.Translate {
		e.logger.Debug("translation is not supported, transcribing in the source language", zap.String("language", lang))
	}

	id, err := e.client.Submit(ctx, lang, input)
	if err != nil {
		return stt.Result{}, err
	}
	job := newJob(id)
	e.logger.Info("transcription job submitted", zap.String("job", job.ID), zap.String("language", lang))

	if err := e.wait(ctx, job); err != nil {
		return stt.Result{}, err
	}

	written, err := e.client.Result(ctx, job.ID, outputPath)
	if err != nil {
		return stt.Result{}, err
	}
	if written == 0 {
		_ = os.Remove(outputPath)
		return stt.Result{}, &stt.Error{
			Kind:   stt.ErrEmptyResult,
			Engine: EngineName,
			Op:     "result",
			JobID:  job.ID,
			Err:    errors.New("server returned an empty caption file"),
		}
	}

	e.logger.Info("subtitles file generated", zap.String("job", job.ID), zap.String("path", outputPath), zap.Int64("bytes", written))
	return stt.Result{Path: outputPath, Language: lang}, nil
}

// wait polls job until it completes. It polls at most
// ceil(Timeout/PollInterval) times and sleeps after every non-terminal poll.
func (e *Engine) wait(ctx context.Context, job *Job) error {
	interval := e.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	sleep := e.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var elapsed time.Duration
	nextProgress := progressEvery
	for {
		state, err := e.client.Status(ctx, job.ID)
		if err != nil {
			return err
		}
		if job.Advance(state) {
			e.logger.Debug("transcription job state changed", zap.String("job", job.ID), zap.Stringer("state", job.State))
		}

		switch job.State {
		case StateCompleted:
			e.logger.Info("transcription job completed", zap.String("job", job.ID), zap.Duration("waited", elapsed))
			return nil
		case StateFailed:
			return &stt.Error{
				Kind:   stt.ErrRemoteJobFailed,
				Engine: EngineName,
				Op:     "status",
				JobID:  job.ID,
				Err:    errors.New("server reported the job as failed"),
			}
		}

		if err := sleep(ctx, interval); err != nil {
			return &stt.Error{Kind: stt.ErrCancelled, Engine: EngineName, Op: "wait", JobID: job.ID, Err: err}
		}
		elapsed += interval

		if elapsed >= nextProgress {
			e.logger.Info("transcription job still in progress", zap.String("job", job.ID), zap.Stringer("state", job.State), zap.Duration("waited", elapsed))
			nextProgress += progressEvery
		}

		if elapsed >= e.cfg.Timeout {
			job.Advance(StateTimedOut)
			return &stt.Error{
				Kind:   stt.ErrPollTimeout,
				Engine: EngineName,
				Op:     "wait",
				JobID:  job.ID,
				Err:    fmt.Errorf("job not finished after %s", elapsed),
			}
		}
	}
}

// prepareInput returns the file to upload and a cleanup for any temporary
// copy made along the way.
func (e *Engine) prepareInput(ctx context.Context, mediaPath, workDir string) (string, func(), error) {
	noop := func() {}

	if !e.cfg.AutoEncode {
		if !isWAV(mediaPath) {
			return "", noop, stt.Errorf(stt.ErrUnsupportedFormat, EngineName, "check input", "%s is not a .wav file and auto encoding is off", filepath.Base(mediaPath))
		}
		return mediaPath, noop, nil
	}

	if isWAV(mediaPath) {
		if format, err := audio.Probe(mediaPath); err == nil && format.IsCanonical() {
			e.logger.Debug("input already in canonical format", zap.String("path", mediaPath))
			return mediaPath, noop, nil
		}
	}

	normalized, err := e.normalizer.Normalize(ctx, mediaPath, workDir)
	if err != nil {
		return "", noop, err
	}

	return normalized, func() {
		if err := os.Remove(normalized); err != nil && !errors.Is(err, os.ErrNotExist) {
			e.logger.Warn("failed to remove normalized audio", zap.String("path", normalized), zap.Error(err))
		}
	}, nil
}

func isWAV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".wav")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
