// Package audio converts media into the waveform speech engines expect and
// inspects WAV headers to tell whether a conversion is needed.
package audio

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fmueller/voxcaption/internal/stt"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultFFmpeg is the encoder binary used when none is configured.
const DefaultFFmpeg = "ffmpeg"

// RunFunc executes name with args and returns its combined output.
type RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Normalizer converts media files to mono 16 kHz 16-bit PCM WAV with ffmpeg.
type Normalizer struct {
	FFmpeg string
	Logger *zap.Logger
	// Run replaces process execution in tests.
	Run RunFunc
}

// NewNormalizer returns a Normalizer for the given ffmpeg binary.
func NewNormalizer(ffmpeg string, logger *zap.Logger) *Normalizer {
	if strings.TrimSpace(ffmpeg) == "" {
		ffmpeg = DefaultFFmpeg
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{FFmpeg: ffmpeg, Logger: logger}
}

// Args returns the encoder arguments converting src into dest.
func Args(src, dest string) []string {
	return []string{
		"-i", src,
		"-ar", strconv.Itoa(CanonicalSampleRate),
		"-ac", strconv.Itoa(CanonicalChannels),
		"-c:a", "pcm_s16le",
		dest,
	}
}

// Normalize writes a canonical copy of src into workDir and returns its path.
// The file name is random so concurrent requests sharing a directory never
// collide. src is left untouched.
func (n *Normalizer) Normalize(ctx context.Context, src, workDir string) (string, error) {
	dest := filepath.Join(workDir, uuid.NewString()+".wav")
	args := Args(src, dest)

	n.log().Debug("normalizing audio", zap.String("ffmpeg", n.FFmpeg), zap.Strings("args", args))
	out, err := n.run(ctx, n.FFmpeg, args...)
	if err == nil {
		return dest, nil
	}

	_ = os.Remove(dest)

	if stt.IsCancellation(ctx.Err()) {
		return "", stt.Cancelled("ffmpeg", "normalize", ctx.Err())
	}

	failure := &stt.Error{
		Kind:   stt.ErrPreprocessing,
		Engine: "ffmpeg",
		Op:     "normalize " + filepath.Base(src),
		Output: stt.TrimOutput(string(out)),
		Err:    err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		failure.ExitCode = exitErr.ExitCode()
	} else {
		failure.ExitCode = -1
	}
	return "", failure
}

func (n *Normalizer) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if n.Run != nil {
		return n.Run(ctx, name, args...)
	}
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func (n *Normalizer) log() *zap.Logger {
	if n.Logger == nil {
		return zap.NewNop()
	}
	return n.Logger
}
