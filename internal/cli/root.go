package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fmueller/voxcaption/internal/config"
	"github.com/fmueller/voxcaption/internal/download"
	"github.com/fmueller/voxcaption/internal/logging"
	"github.com/fmueller/voxcaption/internal/stt"
	"github.com/fmueller/voxcaption/internal/transcribe"
	"github.com/fmueller/voxcaption/internal/version"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/spf13/cobra"
)

type appState struct {
	verbose    bool
	jsonLogs   bool
	noProgress bool
	configPath string
	engine     string
	model      string
	modelDir   string

	logger *zap.Logger

	loadConfigFn func(path string) (*config.Config, string, bool, error)
	newEngineFn  func(cfg *config.Config, name string, logger *zap.Logger) (stt.Engine, error)
	downloadFn   func(ctx context.Context, opts download.Options) error
}

func NewRootCmd() *cobra.Command {
	app := &appState{
		loadConfigFn: config.Load,
		newEngineFn:  transcribe.NewEngine,
		downloadFn:   download.DownloadFile,
	}

	cmd := &cobra.Command{
		Use:           "voxcaption",
		Short:         "Generate WebVTT captions with a local or remote whisper engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			app.logger = logging.New(logging.Options{Verbose: app.verbose, JSON: app.jsonLogs})
			return nil
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	bindLoggingFlags(cmd, app)
	bindProgressFlag(cmd, app)
	bindConfigFlag(cmd, app)

	cmd.AddCommand(newTranscribeCmd(app))
	cmd.AddCommand(newEnginesCmd(app))
	cmd.AddCommand(newSetupCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func bindLoggingFlags(cmd *cobra.Command, app *appState) {
	cmd.PersistentFlags().BoolVar(&app.verbose, "verbose", app.verbose, "Enable verbose logs")
	cmd.PersistentFlags().BoolVar(&app.jsonLogs, "json", app.jsonLogs, "Enable JSON logging")
}

func bindProgressFlag(cmd *cobra.Command, app *appState) {
	cmd.PersistentFlags().BoolVar(&app.noProgress, "no-progress", app.noProgress, "Disable progress indicators")
}

func bindConfigFlag(cmd *cobra.Command, app *appState) {
	cmd.PersistentFlags().StringVar(&app.configPath, "config", app.configPath, "Config file (default $XDG_CONFIG_HOME/voxcaption/config.toml)")
}

func bindModelFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().StringVar(&app.model, "model", app.model, "whisper.cpp model name or model file path")
	cmd.Flags().StringVar(&app.modelDir, "model-dir", app.modelDir, "Directory where whisper.cpp models are stored")
}

// loadConfig reads the config file and applies command line overrides.
func (a *appState) loadConfig() (*config.Config, error) {
	loadFn := a.loadConfigFn
	if loadFn == nil {
		loadFn = config.Load
	}

	cfg, path, found, err := loadFn(a.configPath)
	if err != nil {
		return nil, err
	}
	if found {
		a.log().Debug("config loaded", zap.String("path", path))
	} else {
		a.log().Debug("no config file, using defaults", zap.String("path", path))
	}

	if engine := strings.ToLower(strings.TrimSpace(a.engine)); engine != "" {
		cfg.Engine = engine
	}
	if model := strings.TrimSpace(a.model); model != "" {
		cfg.WhisperCpp.Model = model
	}
	if modelDir := strings.TrimSpace(a.modelDir); modelDir != "" {
		cfg.WhisperCpp.ModelDir = modelDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (a *appState) newEngine(cfg *config.Config, logger *zap.Logger) (stt.Engine, error) {
	newFn := a.newEngineFn
	if newFn == nil {
		newFn = transcribe.NewEngine
	}
	return newFn(cfg, cfg.Engine, logger)
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func (a *appState) progressEnabled() bool {
	if a.noProgress {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}
