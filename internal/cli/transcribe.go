package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fmueller/voxcaption/internal/config"
	"github.com/fmueller/voxcaption/internal/platform"
	"github.com/fmueller/voxcaption/internal/stt"
	"github.com/fmueller/voxcaption/internal/transcribe"
	"github.com/fmueller/voxcaption/internal/whisper"
	"github.com/spf13/cobra"
)

type transcribeOptions struct {
	outputDir  string
	outputPath string
	language   string
	translate  bool
}

func newTranscribeCmd(app *appState) *cobra.Command {
	opts := &transcribeOptions{}

	cmd := &cobra.Command{
		Use:   "transcribe <media-file>",
		Short: "Generate a WebVTT caption file for a media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mediaPath := filepath.Clean(args[0])
			if _, err := os.Stat(mediaPath); err != nil {
				return fmt.Errorf("media file not found: %w", err)
			}

			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}

			if cfg.Engine == config.EngineWhisperCpp {
				if err := checkModelInstalled(cfg.WhisperCpp); err != nil {
					return err
				}
			}

			sp := startSpinner(app.progressEnabled(), cfg.Engine)
			defer sp.stop()
			logger := app.log().WithOptions(sp.follow())

			engine, err := app.newEngine(cfg, logger)
			if err != nil {
				return err
			}

			outputDir := opts.outputDir
			if outputDir == "" {
				outputDir = filepath.Dir(mediaPath)
			}

			req := stt.Request{
				MediaPath:  mediaPath,
				OutputDir:  outputDir,
				OutputPath: opts.outputPath,
				Language:   opts.language,
				Translate:  opts.translate,
			}

			result, err := transcribe.Run(cmd.Context(), engine, req, logger)
			sp.stop()
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "", "Directory for the caption file (default: next to the media file)")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Caption file path (overrides --output-dir)")
	cmd.Flags().StringVar(&opts.language, "language", "", "Spoken language as ISO 639-1 or 639-2 code (default: engine fallback)")
	cmd.Flags().BoolVar(&opts.translate, "translate", false, "Translate captions to English when the engine supports it")
	cmd.Flags().StringVar(&app.engine, "engine", "", "Engine to use: whispercpp|waas (default from config)")
	bindModelFlags(cmd, app)
	return cmd
}

// checkModelInstalled fails early with a setup hint when the configured
// whisper.cpp model is not on disk.
func checkModelInstalled(section config.WhisperCpp) error {
	modelDir, err := platform.ResolveModelDir(section.ModelDir)
	if err != nil {
		return err
	}

	resolved, err := whisper.ResolveModel(section.Model, modelDir)
	if err != nil {
		return err
	}
	if resolved.NeedsDownload {
		return fmt.Errorf("model %q is missing at %s; run `voxcaption setup --model %s`", resolved.Name, resolved.Path, resolved.Name)
	}
	return nil
}
