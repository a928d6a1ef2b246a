package stt

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every engine failure matches exactly one of these with errors.Is.
var (
	ErrPreprocessing       = errors.New("audio preprocessing failed")
	ErrEngineExecution     = errors.New("engine execution failed")
	ErrEngineOutputMissing = errors.New("engine produced no output")
	ErrUnsupportedFormat   = errors.New("unsupported media format")
	ErrSubmission          = errors.New("job submission failed")
	ErrPolling             = errors.New("job status polling failed")
	ErrResultFetch         = errors.New("job result fetch failed")
	ErrRemoteJobFailed     = errors.New("remote job failed")
	ErrPollTimeout         = errors.New("remote job timed out")
	ErrEmptyResult         = errors.New("engine returned an empty result")
	ErrCancelled           = errors.New("transcription cancelled")
)

// maxOutput bounds the captured process output kept on an Error.
const maxOutput = 4096

// Error is the concrete failure returned by engines. Fields that do not apply
// to the failing phase are left zero.
type Error struct {
	Kind       error
	Engine     string
	Op         string
	JobID      string
	StatusCode int
	ExitCode   int
	Output     string
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	var b strings.Builder
	if e.Engine != "" {
		b.WriteString(e.Engine)
		b.WriteString(": ")
	}
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("transcription failed")
	}
	if e.Op != "" {
		b.WriteString(" (")
		b.WriteString(e.Op)
		b.WriteString(")")
	}

	var details []string
	if e.JobID != "" {
		details = append(details, "job="+e.JobID)
	}
	if e.StatusCode != 0 {
		details = append(details, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if e.ExitCode != 0 {
		details = append(details, fmt.Sprintf("exit=%d", e.ExitCode))
	}
	if len(details) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(details, " "))
		b.WriteString("]")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		b.WriteString("\noutput:\n")
		b.WriteString(out)
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Errorf builds an Error of the given kind with a formatted cause.
func Errorf(kind error, engine, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Engine: engine, Op: op, Err: fmt.Errorf(format, args...)}
}

// TrimOutput keeps the tail of a process output, which is where tools print
// their failure reason.
func TrimOutput(out string) string {
	out = strings.TrimSpace(out)
	if len(out) <= maxOutput {
		return out
	}
	return "..." + out[len(out)-maxOutput:]
}

// IsCancellation reports whether err stems from a cancelled or expired context.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Cancelled wraps a context error into an ErrCancelled failure.
func Cancelled(engine, op string, err error) *Error {
	return &Error{Kind: ErrCancelled, Engine: engine, Op: op, Err: err}
}
