package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fmueller/voxcaption/internal/cli"
	"github.com/fmueller/voxcaption/internal/stt"
	"github.com/spf13/cobra"
)

// Exit codes group failures by what the user has to fix.
const (
	exitFailure   = 1
	exitUsage     = 2
	exitInput     = 3
	exitEngine    = 4
	exitRemote    = 5
	exitTimeout   = 6
	exitCancelled = 130
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCmd()
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	fmt.Fprintln(stderr, err)
	if isUsageError(err) {
		fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", helpHintTarget(cmd, args))
		return exitUsage
	}
	if hint := configHint(err); hint != "" {
		fmt.Fprintln(stderr, hint)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, stt.ErrCancelled) || stt.IsCancellation(err):
		return exitCancelled
	case errors.Is(err, stt.ErrPollTimeout):
		return exitTimeout
	case errors.Is(err, stt.ErrPreprocessing), errors.Is(err, stt.ErrUnsupportedFormat):
		return exitInput
	case errors.Is(err, stt.ErrEngineExecution), errors.Is(err, stt.ErrEngineOutputMissing), errors.Is(err, stt.ErrEmptyResult):
		return exitEngine
	case errors.Is(err, stt.ErrSubmission), errors.Is(err, stt.ErrPolling), errors.Is(err, stt.ErrResultFetch), errors.Is(err, stt.ErrRemoteJobFailed):
		return exitRemote
	default:
		return exitFailure
	}
}

// configHint names the setting most likely to resolve err, if any.
func configHint(err error) string {
	var sttErr *stt.Error
	if !errors.As(err, &sttErr) {
		return ""
	}

	switch {
	case errors.Is(err, stt.ErrPollTimeout):
		return "Hint: raise timeout (seconds) under [waas] in the config file for long recordings."
	case errors.Is(err, stt.ErrUnsupportedFormat):
		return fmt.Sprintf("Hint: set auto_encode = true under [%s] to convert the media with ffmpeg first.", sttErr.Engine)
	case errors.Is(err, stt.ErrPreprocessing):
		return "Hint: check ffmpeg_path in the config file or VOXCAPTION_FFMPEG_PATH."
	case errors.Is(err, stt.ErrEngineExecution) && sttErr.ExitCode == -1:
		return "Hint: check executable under [whispercpp] or VOXCAPTION_WHISPERCPP_PATH."
	case (errors.Is(err, stt.ErrSubmission) || errors.Is(err, stt.ErrPolling)) && sttErr.StatusCode == 0:
		return "Hint: check host under [waas] or VOXCAPTION_WAAS_HOST."
	default:
		return ""
	}
}

func isUsageError(err error) bool {
	if err == nil {
		return false
	}

	message := strings.ToLower(strings.TrimSpace(err.Error()))
	for _, pattern := range []string{
		"unknown command",
		"unknown flag",
		"unknown shorthand flag",
		"accepts ",
		"requires at least",
		"requires at most",
		"requires between",
		"required flag",
	} {
		if strings.Contains(message, pattern) {
			return true
		}
	}

	return false
}

func helpHintTarget(root *cobra.Command, args []string) string {
	target := root.CommandPath()
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return target
	}

	found, _, err := root.Find(args)
	if err == nil && found != nil {
		return found.CommandPath()
	}
	return target
}
