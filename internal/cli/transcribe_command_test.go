package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/fmueller/voxcaption/internal/config"
	"github.com/fmueller/voxcaption/internal/stt"
	"github.com/stretchr/testify/require"
)

func waasConfig() config.Config {
	cfg := config.Default()
	cfg.Engine = config.EngineWaaS
	return cfg
}

func TestTranscribeCommandPrintsCaptionPath(t *testing.T) {
	t.Parallel()

	media := writeMedia(t, "lecture.mp4")
	engine := &fakeEngine{name: "waas"}
	var selected string

	app := &appState{
		loadConfigFn: fixedConfig(waasConfig()),
		newEngineFn:  fakeEngineFactory(t, engine, &selected),
	}

	out := new(bytes.Buffer)
	cmd := newTranscribeCmd(app)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"--language", "deu", "--translate", media})

	require.NoError(t, cmd.Execute())
	require.Equal(t, "waas", selected)

	want := filepath.Join(filepath.Dir(media), "lecture.vtt")
	require.Equal(t, want+"\n", out.String())
	require.FileExists(t, want)

	require.Len(t, engine.requests, 1)
	req := engine.requests[0]
	require.Equal(t, media, req.MediaPath)
	require.Equal(t, filepath.Dir(media), req.OutputDir)
	require.Equal(t, "deu", req.Language)
	require.True(t, req.Translate)
}

func TestTranscribeCommandHonoursOutputFlags(t *testing.T) {
	t.Parallel()

	media := writeMedia(t, "talk.wav")
	outDir := filepath.Join(t.TempDir(), "captions")
	outPath := filepath.Join(t.TempDir(), "custom", "talk.de.vtt")
	engine := &fakeEngine{name: "waas"}

	app := &appState{
		loadConfigFn: fixedConfig(waasConfig()),
		newEngineFn:  fakeEngineFactory(t, engine, nil),
	}

	cmd := newTranscribeCmd(app)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"--output-dir", outDir, media})
	require.NoError(t, cmd.Execute())
	require.FileExists(t, filepath.Join(outDir, "talk.vtt"))

	cmd = newTranscribeCmd(app)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"-o", outPath, media})
	require.NoError(t, cmd.Execute())
	require.FileExists(t, outPath)
}

func TestTranscribeCommandEngineFlagOverridesConfig(t *testing.T) {
	t.Parallel()

	media := writeMedia(t, "talk.wav")
	engine := &fakeEngine{name: "waas"}
	var selected string

	cfg := config.Default()
	app := &appState{
		loadConfigFn: fixedConfig(cfg),
		newEngineFn:  fakeEngineFactory(t, engine, &selected),
	}

	cmd := newTranscribeCmd(app)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"--engine", "WAAS", media})
	require.NoError(t, cmd.Execute())
	require.Equal(t, config.EngineWaaS, selected)
}

func TestTranscribeCommandReportsMissingModel(t *testing.T) {
	t.Parallel()

	media := writeMedia(t, "talk.wav")
	engine := &fakeEngine{name: "whispercpp"}

	cfg := config.Default()
	cfg.WhisperCpp.ModelDir = t.TempDir()
	app := &appState{
		loadConfigFn: fixedConfig(cfg),
		newEngineFn:  fakeEngineFactory(t, engine, nil),
	}

	cmd := newTranscribeCmd(app)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{media})

	err := cmd.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "voxcaption setup --model base")
	require.Empty(t, engine.requests)
}

func TestTranscribeCommandReturnsEngineError(t *testing.T) {
	t.Parallel()

	media := writeMedia(t, "talk.wav")
	engine := &fakeEngine{name: "waas", err: stt.Errorf(stt.ErrPollTimeout, "waas", "wait", "job not finished")}

	app := &appState{
		loadConfigFn: fixedConfig(waasConfig()),
		newEngineFn:  fakeEngineFactory(t, engine, nil),
	}

	out := new(bytes.Buffer)
	cmd := newTranscribeCmd(app)
	cmd.SetOut(out)
	cmd.SetArgs([]string{media})

	err := cmd.Execute()
	require.ErrorIs(t, err, stt.ErrPollTimeout)
	require.Empty(t, out.String())
}
