// Package transcribe selects one of the configured engines and runs
// transcription requests through it.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fmueller/voxcaption/internal/audio"
	"github.com/fmueller/voxcaption/internal/config"
	"github.com/fmueller/voxcaption/internal/language"
	"github.com/fmueller/voxcaption/internal/platform"
	"github.com/fmueller/voxcaption/internal/stt"
	"github.com/fmueller/voxcaption/internal/waas"
	"github.com/fmueller/voxcaption/internal/whisper"
	"go.uber.org/zap"
)

// Names lists the engines NewEngine can build.
func Names() []string {
	return []string{whisper.EngineName, waas.EngineName}
}

// NewEngine builds the engine called name from cfg. An empty name selects
// cfg.Engine.
func NewEngine(cfg *config.Config, name string, logger *zap.Logger) (stt.Engine, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = cfg.Engine
	}

	normalizer := audio.NewNormalizer(cfg.FFmpegPath, logger)

	switch name {
	case whisper.EngineName:
		whisperCfg, err := WhisperConfig(cfg.WhisperCpp)
		if err != nil {
			return nil, err
		}
		return whisper.NewEngine(whisperCfg, normalizer, logger)
	case waas.EngineName:
		return waas.NewEngine(WaaSConfig(cfg.WaaS), normalizer, nil, logger)
	default:
		return nil, fmt.Errorf("unknown engine %q (known engines: %s)", name, strings.Join(Names(), ", "))
	}
}

// WhisperConfig maps the [whispercpp] section to engine settings, resolving
// the model directory.
func WhisperConfig(section config.WhisperCpp) (whisper.Config, error) {
	modelDir, err := platform.ResolveModelDir(section.ModelDir)
	if err != nil {
		return whisper.Config{}, fmt.Errorf("resolve model directory: %w", err)
	}

	return whisper.Config{
		Executable:      section.Executable,
		Model:           section.Model,
		ModelDir:        modelDir,
		DefaultLanguage: section.DefaultLanguage,
		AutoEncode:      section.AutoEncode,
	}, nil
}

// WaaSConfig maps the [waas] section to engine settings.
func WaaSConfig(section config.WaaS) waas.Config {
	return waas.Config{
		Host:             section.Host,
		Retry:            section.Retry,
		Timeout:          time.Duration(section.Timeout) * time.Second,
		RequestTimeout:   time.Duration(section.RequestTimeout) * time.Second,
		FallbackLanguage: section.FallbackLanguage,
		AutoEncode:       section.AutoEncode,
	}
}

// Run executes req on engine. The output directory is created when missing
// and never removed. A successful result always names an existing,
// non-empty regular file.
func Run(ctx context.Context, engine stt.Engine, req stt.Request, logger *zap.Logger) (stt.Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := req.Validate(); err != nil {
		return stt.Result{}, err
	}
	if code := strings.ToLower(strings.TrimSpace(req.Language)); len(code) == 3 && !language.Known(code) {
		logger.Debug("language code not in locale table, passing it through", zap.String("language", code))
	}

	outputDir := filepath.Dir(req.ResolvedOutputPath())
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return stt.Result{}, fmt.Errorf("create output directory: %w", err)
	}

	started := time.Now()
	logger.Info("transcription started", zap.String("engine", engine.Name()), zap.String("media", req.MediaPath))

	result, err := engine.Generate(ctx, req)
	if err != nil {
		return stt.Result{}, err
	}

	if err := checkResult(engine.Name(), result); err != nil {
		return stt.Result{}, err
	}

	logger.Info("transcription finished",
		zap.String("engine", engine.Name()),
		zap.String("path", result.Path),
		zap.String("language", result.Language),
		zap.Duration("took", time.Since(started).Round(time.Millisecond)),
	)
	return result, nil
}

func checkResult(engine string, result stt.Result) error {
	info, err := os.Stat(result.Path)
	if err != nil {
		return &stt.Error{Kind: stt.ErrEngineOutputMissing, Engine: engine, Op: "check result", Err: err}
	}
	if !info.Mode().IsRegular() {
		return stt.Errorf(stt.ErrEngineOutputMissing, engine, "check result", "%s is not a regular file", result.Path)
	}
	if info.Size() == 0 {
		_ = os.Remove(result.Path)
		return stt.Errorf(stt.ErrEmptyResult, engine, "check result", "%s is empty", result.Path)
	}
	return nil
}
