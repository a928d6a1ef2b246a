// Package logging builds the zap logger shared by the CLI and the engines.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const rootName = "voxcaption"

type Options struct {
	Verbose bool
	JSON    bool
	// Output receives the log entries. Nil means stderr, keeping stdout free
	// for command output.
	Output zapcore.WriteSyncer
}

// New returns a console logger, or a JSON logger when opts.JSON is set.
// Engines derive named children from it, e.g. "voxcaption.waas".
func New(opts Options) *zap.Logger {
	level := zapcore.InfoLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	var encoder zapcore.Encoder
	if opts.JSON {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = ""
		cfg.CallerKey = ""
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	out := opts.Output
	if out == nil {
		out = zapcore.Lock(os.Stderr)
	}

	zapOpts := []zap.Option{zap.ErrorOutput(zapcore.Lock(os.Stderr))}
	if opts.Verbose {
		zapOpts = append(zapOpts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	return zap.New(zapcore.NewCore(encoder, out, level), zapOpts...).Named(rootName)
}
