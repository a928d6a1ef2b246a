package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fmueller/voxcaption/internal/config"
	"github.com/fmueller/voxcaption/internal/stt"
	"github.com/fmueller/voxcaption/internal/transcribe"
	"github.com/fmueller/voxcaption/internal/waas"
	"github.com/fmueller/voxcaption/internal/whisper"
	"github.com/spf13/cobra"
)

func newEnginesCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List transcription engines and their settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(transcribe.Names()))
			for _, name := range transcribe.Names() {
				rows = append(rows, app.engineRow(cfg, name))
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Engine", "Default", "Status", "Settings"}, rows))
			return nil
		},
	}
}

func (a *appState) engineRow(cfg *config.Config, name string) []string {
	isDefault := ""
	if name == cfg.Engine {
		isDefault = "yes"
	}

	newFn := a.newEngineFn
	if newFn == nil {
		newFn = transcribe.NewEngine
	}

	engine, err := newFn(cfg, name, a.log())
	if err != nil {
		return []string{name, isDefault, "error: " + err.Error(), ""}
	}
	return []string{name, isDefault, engineStatus(engine), engineSettings(cfg, name)}
}

func engineStatus(engine stt.Engine) string {
	switch e := engine.(type) {
	case *whisper.Engine:
		path, err := e.Executable()
		if err != nil {
			return "unavailable: " + err.Error()
		}
		if _, err := whisper.ResolveModel(e.ModelPath(), ""); err != nil {
			return "model missing (run setup)"
		}
		return "ready (" + path + ")"
	case *waas.Engine:
		return "remote " + e.Host()
	default:
		return "configured"
	}
}

func engineSettings(cfg *config.Config, name string) string {
	var settings []string
	switch name {
	case config.EngineWhisperCpp:
		settings = []string{
			"executable=" + cfg.WhisperCpp.Executable,
			"model=" + cfg.WhisperCpp.Model,
			"language=" + cfg.WhisperCpp.DefaultLanguage,
			"auto_encode=" + strconv.FormatBool(cfg.WhisperCpp.AutoEncode),
		}
	case config.EngineWaaS:
		settings = []string{
			"retry=" + strconv.Itoa(cfg.WaaS.Retry),
			"timeout=" + strconv.Itoa(cfg.WaaS.Timeout) + "s",
			"language=" + cfg.WaaS.FallbackLanguage,
			"auto_encode=" + strconv.FormatBool(cfg.WaaS.AutoEncode),
		}
	}
	return strings.Join(settings, " ")
}
