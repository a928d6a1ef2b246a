package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSpinnerStopIsIdempotent(t *testing.T) {
	t.Parallel()

	sp := startSpinner(true, "waas")
	sp.describe("transcription job submitted")
	sp.stop()
	sp.stop()
}

func TestSpinnerFollowsInfoMessages(t *testing.T) {
	t.Parallel()

	sp := startSpinner(false, "waas")
	core, _ := observer.New(zapcore.DebugLevel)
	logger := zap.New(core).WithOptions(sp.follow())

	logger.Info("transcription job submitted")
	logger.Debug("polling job status")

	sp.mu.Lock()
	phase := sp.phase
	sp.mu.Unlock()
	require.Equal(t, "transcription job submitted", phase)
	require.Equal(t, "waas: transcription job submitted", sp.label(phase))

	sp.stop()
}
