// Package whisper runs the whisper.cpp command line tool as a local
// transcription engine and manages the ggml models it loads.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fmueller/voxcaption/internal/language"
	"github.com/fmueller/voxcaption/internal/stt"
	"go.uber.org/zap"
)

// EngineName identifies the whisper.cpp engine.
const EngineName = "whispercpp"

const beamSize = "5"

// Config is the engine configuration, fixed at construction.
type Config struct {
	Executable      string
	Model           string
	ModelDir        string
	DefaultLanguage string
	// AutoEncode converts the input to mono 16 kHz PCM WAV before running.
	AutoEncode bool
}

// Normalizer converts a media file into a canonical WAV inside workDir.
type Normalizer interface {
	Normalize(ctx context.Context, src, workDir string) (string, error)
}

// Engine transcribes by invoking whisper.cpp once per request.
type Engine struct {
	cfg        Config
	normalizer Normalizer
	logger     *zap.Logger
}

var _ stt.Engine = (*Engine)(nil)

// NewEngine returns a whisper.cpp engine. normalizer may be nil when
// AutoEncode is off.
func NewEngine(cfg Config, normalizer Normalizer, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(cfg.Executable) == "" {
		return nil, errors.New("whisper.cpp executable is required")
	}
	if cfg.AutoEncode && normalizer == nil {
		return nil, errors.New("auto encoding requires an audio normalizer")
	}
	if strings.TrimSpace(cfg.DefaultLanguage) == "" {
		cfg.DefaultLanguage = "en"
	}

	return &Engine{cfg: cfg, normalizer: normalizer, logger: logger.Named(EngineName)}, nil
}

func (e *Engine) Name() string {
	return EngineName
}

// Executable returns the resolved whisper.cpp binary or an error when it
// cannot be run.
func (e *Engine) Executable() (string, error) {
	path, err := exec.LookPath(e.cfg.Executable)
	if err != nil {
		return "", err
	}
	if err := ensureExecutable(path); err != nil {
		return "", err
	}
	return path, nil
}

// ModelPath returns the model file passed to whisper.cpp.
func (e *Engine) ModelPath() string {
	return ModelPath(e.cfg.Model, e.cfg.ModelDir)
}

// Args builds the whisper.cpp argument list.
func Args(modelPath, outputPath, lang, inputPath string, translate bool) []string {
	args := []string{
		"-ovtt",
		"-bs", beamSize,
		"--model", modelPath,
		"--output-file", outputPath,
		"-l", lang,
		"-f", inputPath,
	}
	if translate {
		args = append(args, "--translate")
	}
	return args
}

// Generate runs whisper.cpp on the request's media and moves the produced
// WebVTT file to the requested output path.
func (e *Engine) Generate(ctx context.Context, req stt.Request) (stt.Result, error) {
	if err := req.Validate(); err != nil {
		return stt.Result{}, err
	}

	lang := language.Resolve(req.Language, e.cfg.DefaultLanguage)
	if strings.TrimSpace(req.Language) == "" {
		e.logger.Debug("language empty, using default", zap.String("language", lang))
	}

	outputPath, err := filepath.Abs(req.ResolvedOutputPath())
	if err != nil {
		return stt.Result{}, fmt.Errorf("resolve output path: %w", err)
	}
	inputPath, err := filepath.Abs(req.MediaPath)
	if err != nil {
		return stt.Result{}, fmt.Errorf("resolve media path: %w", err)
	}

	if e.cfg.AutoEncode {
		normalized, err := e.normalizer.Normalize(ctx, inputPath, filepath.Dir(outputPath))
		if err != nil {
			return stt.Result{}, err
		}
		defer func() {
			if err := os.Remove(normalized); err != nil && !errors.Is(err, os.ErrNotExist) {
				e.logger.Warn("failed to remove normalized audio", zap.String("path", normalized), zap.Error(err))
			}
		}()
		inputPath = normalized
	}

	args := Args(e.ModelPath(), outputPath, lang, inputPath, req.Translate)
	e.logger.Info("running whisper.cpp", zap.String("executable", e.cfg.Executable), zap.Strings("args", args))

	// Filesystem timestamps can be coarse or lag the wall clock.
	started := time.Now().Truncate(time.Second).Add(-time.Second)
	cmd := exec.CommandContext(ctx, e.cfg.Executable, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return stt.Result{}, e.executionError(ctx, err, string(output))
	}

	info, err := recoverOutput(inputPath, outputPath, started)
	if err != nil {
		e.logger.Debug("whisper.cpp output not found", zap.String("media", req.MediaPath), zap.Error(err))
		return stt.Result{}, &stt.Error{
			Kind:   stt.ErrEngineOutputMissing,
			Engine: EngineName,
			Op:     "collect output",
			Output: stt.TrimOutput(string(output)),
			Err:    err,
		}
	}
	if info.Size() == 0 {
		if err := os.Remove(outputPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			e.logger.Warn("failed to remove empty subtitles file", zap.String("path", outputPath), zap.Error(err))
		}
		return stt.Result{}, &stt.Error{
			Kind:   stt.ErrEmptyResult,
			Engine: EngineName,
			Op:     "collect output",
			Output: stt.TrimOutput(string(output)),
			Err:    fmt.Errorf("%s is empty", outputPath),
		}
	}

	resultLang := lang
	if req.Translate {
		resultLang = "en"
	}

	e.logger.Info("subtitles file generated", zap.String("path", outputPath), zap.String("language", resultLang))
	return stt.Result{Path: outputPath, Language: resultLang}, nil
}

func (e *Engine) executionError(ctx context.Context, err error, output string) error {
	if stt.IsCancellation(ctx.Err()) {
		return stt.Cancelled(EngineName, "run", ctx.Err())
	}

	failure := &stt.Error{
		Kind:     stt.ErrEngineExecution,
		Engine:   EngineName,
		Op:       "run " + e.cfg.Executable,
		ExitCode: -1,
		Output:   stt.TrimOutput(output),
		Err:      err,
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		failure.ExitCode = exitErr.ExitCode()
	}

	switch {
	case isMissingSharedLibraryError(output):
		failure.Err = fmt.Errorf("%w; whisper.cpp at %s is missing required shared libraries", err, e.cfg.Executable)
	case isIllegalInstructionError(output) || isIllegalInstructionError(err.Error()):
		failure.Err = fmt.Errorf("%w; whisper.cpp crashed with an illegal CPU instruction, configure a build for this CPU", err)
	}

	return failure
}

// recoverOutput moves the file whisper.cpp wrote during this run to
// outputPath. The tool appends the extension to --output-file; some builds
// instead name the output after the input, next to it. Files older than
// since are left over from earlier runs and ignored.
func recoverOutput(inputPath, outputPath string, since time.Time) (os.FileInfo, error) {
	candidates := []string{
		outputPath + stt.SubtitleExt,
		filepath.Join(filepath.Dir(inputPath), stt.BaseName(inputPath)+stt.SubtitleExt),
	}

	for _, candidate := range candidates {
		if candidate == outputPath || !writtenSince(candidate, since) {
			continue
		}
		if err := os.Rename(candidate, outputPath); err != nil {
			return nil, fmt.Errorf("move %s to %s: %w", candidate, outputPath, err)
		}
		break
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", outputPath)
	}
	if info.ModTime().Before(since) {
		return nil, fmt.Errorf("%s was not written by this run", outputPath)
	}
	return info, nil
}

func writtenSince(path string, since time.Time) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && !info.ModTime().Before(since)
}

func ensureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if runtime.GOOS != "windows" && info.Mode()&0o111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}

func isMissingSharedLibraryError(output string) bool {
	value := strings.ToLower(strings.TrimSpace(output))
	if value == "" {
		return false
	}

	patterns := []string{
		"error while loading shared libraries",
		"cannot open shared object file",
		"dyld: library not loaded",
		"image not found",
	}

	for _, pattern := range patterns {
		if strings.Contains(value, pattern) {
			return true
		}
	}

	return false
}

func isIllegalInstructionError(output string) bool {
	return strings.Contains(strings.ToLower(output), "illegal instruction")
}
