package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/fmueller/voxcaption/internal/config"
	"github.com/stretchr/testify/require"
)

func TestEnginesCommandListsEngines(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.WhisperCpp.Executable = filepath.Join(t.TempDir(), "no-whisper")
	cfg.WhisperCpp.ModelDir = t.TempDir()
	cfg.WaaS.Host = "https://waas.example.org"

	app := &appState{loadConfigFn: fixedConfig(cfg)}

	out := new(bytes.Buffer)
	cmd := newEnginesCmd(app)
	cmd.SetOut(out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	rendered := out.String()
	require.Contains(t, rendered, "ENGINE")
	require.Contains(t, rendered, "whispercpp")
	require.Contains(t, rendered, "unavailable")
	require.Contains(t, rendered, "remote https://waas.example.org")
	require.Contains(t, rendered, "timeout=3600s")
	require.Contains(t, rendered, "model=base")
}

func TestRenderTablePadsShortRows(t *testing.T) {
	t.Parallel()

	rendered := renderTable([]string{"A", "B"}, [][]string{{"only"}})
	require.Contains(t, rendered, "only")
	require.Empty(t, renderTable(nil, nil))
}
