package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fmueller/voxcaption/internal/config"
	"github.com/fmueller/voxcaption/internal/stt"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func runCommand(t *testing.T, args []string) (stdout string, stderr string, err error) {
	t.Helper()

	cmd := NewRootCmd()
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

// missingConfig returns a config path that does not exist, so commands run
// on defaults regardless of the developer's own configuration.
func missingConfig(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "config.toml")
}

func fixedConfig(cfg config.Config) func(string) (*config.Config, string, bool, error) {
	return func(string) (*config.Config, string, bool, error) {
		c := cfg
		return &c, "test.toml", false, nil
	}
}

type fakeEngine struct {
	name     string
	requests []stt.Request
	err      error
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Generate(_ context.Context, req stt.Request) (stt.Result, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return stt.Result{}, f.err
	}
	path := req.ResolvedOutputPath()
	if err := os.WriteFile(path, []byte("WEBVTT\n"), 0o644); err != nil {
		return stt.Result{}, err
	}
	return stt.Result{Path: path, Language: "de"}, nil
}

func fakeEngineFactory(t *testing.T, engine *fakeEngine, selected *string) func(*config.Config, string, *zap.Logger) (stt.Engine, error) {
	t.Helper()
	return func(_ *config.Config, name string, _ *zap.Logger) (stt.Engine, error) {
		if selected != nil {
			*selected = name
		}
		return engine, nil
	}
}

func writeMedia(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("media"), 0o644))
	return path
}
