package cli

import (
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// spinner shows that a transcription is running. Its label follows the
// engine's info-level log messages, so the current phase (normalizing,
// submitted, waiting) is visible without verbose logging.
type spinner struct {
	engine string
	bar    *progressbar.ProgressBar

	mu    sync.Mutex
	phase string

	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once
}

func startSpinner(enabled bool, engine string) *spinner {
	s := &spinner{engine: engine}
	if !enabled {
		return s
	}

	s.bar = progressbar.NewOptions(
		-1,
		progressbar.OptionSetDescription(s.label("starting")),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(80*time.Millisecond),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionClearOnFinish(),
	)
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	go func() {
		defer close(s.doneCh)
		ticker := time.NewTicker(120 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopCh:
				_ = s.bar.Finish()
				return
			case <-ticker.C:
				_ = s.bar.Add(1)
			}
		}
	}()

	return s
}

func (s *spinner) label(phase string) string {
	return s.engine + ": " + phase
}

func (s *spinner) describe(phase string) {
	s.mu.Lock()
	s.phase = phase
	s.mu.Unlock()

	if s.bar != nil {
		s.bar.Describe(s.label(phase))
	}
}

// follow returns a logger option that mirrors info messages into the label.
func (s *spinner) follow() zap.Option {
	return zap.Hooks(func(entry zapcore.Entry) error {
		if entry.Level >= zapcore.InfoLevel {
			s.describe(entry.Message)
		}
		return nil
	})
}

func (s *spinner) stop() {
	if s.bar == nil {
		return
	}
	s.once.Do(func() {
		close(s.stopCh)
		<-s.doneCh
	})
}
