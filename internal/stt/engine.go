// Package stt defines the contract shared by every transcription engine:
// the request an orchestrator hands in, the caption file it gets back, and
// the error kinds an engine may fail with.
package stt

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

// SubtitleExt is the extension of the WebVTT files engines produce.
const SubtitleExt = ".vtt"

// Request describes one transcription. It is not modified by engines.
type Request struct {
	// MediaPath is the source media file.
	MediaPath string
	// OutputDir is the caller-owned working directory. Engines only write into it.
	OutputDir string
	// OutputPath is where the caption file must end up. Empty means
	// OutputDir/<media base name>.vtt.
	OutputPath string
	// Language is an ISO 639 code (2 or 3 letters). Empty selects the engine default.
	Language string
	// Translate asks the engine to translate the captions to English when it can.
	Translate bool
}

// Result is the caption file handed back to the caller, who owns it from then on.
type Result struct {
	Path     string
	Language string
}

// Engine is a transcription backend. Implementations are safe for concurrent
// use by independent requests.
type Engine interface {
	Name() string
	Generate(ctx context.Context, req Request) (Result, error)
}

// Validate checks the fields every engine needs.
func (r Request) Validate() error {
	if strings.TrimSpace(r.MediaPath) == "" {
		return errors.New("media path is required")
	}
	if strings.TrimSpace(r.OutputDir) == "" && strings.TrimSpace(r.OutputPath) == "" {
		return errors.New("output directory is required")
	}
	return nil
}

// ResolvedOutputPath returns OutputPath, or the default caption path inside
// OutputDir derived from the media file name.
func (r Request) ResolvedOutputPath() string {
	if strings.TrimSpace(r.OutputPath) != "" {
		return filepath.Clean(r.OutputPath)
	}
	return filepath.Join(r.OutputDir, BaseName(r.MediaPath)+SubtitleExt)
}

// BaseName returns the file name of path without its extension.
func BaseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
