package connector

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Sentinel errors classifying why a command produced no usable output.
// Extractors use these to decide whether to advance their fallback chain.
var (
	// ErrToolMissing indicates the executable was not found on the host.
	ErrToolMissing = errors.New("tool not found")
	// ErrTimeout indicates the command exceeded its execution deadline.
	ErrTimeout = errors.New("command timed out")
	// ErrNonZeroExit indicates the command ran but exited non-zero.
	ErrNonZeroExit = errors.New("command exited non-zero")
	// ErrEmptyOutput indicates the command succeeded but wrote nothing useful.
	ErrEmptyOutput = errors.New("command produced no output")
	// ErrParseMismatch indicates tool output did not match the expected shape.
	ErrParseMismatch = errors.New("output did not match expected format")
	// ErrNoData indicates no backend could provide data for a fact family.
	ErrNoData = errors.New("no data available from any source")
)

// CommandError encapsulates detailed information about a command execution
// failure. Partial stdout captured before the failure is preserved so
// parsers can attempt salvage.
type CommandError struct {
	Cmd        string
	ExitCode   int
	Stdout     string
	Stderr     string
	Underlying error
}

// Error returns a string representation of the CommandError.
func (e *CommandError) Error() string {
	errMsg := fmt.Sprintf("command '%s' failed with exit code %d", e.Cmd, e.ExitCode)
	if e.Stderr != "" {
		errMsg = fmt.Sprintf("%s: %s", errMsg, e.Stderr)
	}
	if e.Underlying != nil {
		errMsg = fmt.Sprintf("%s (underlying error: %v)", errMsg, e.Underlying)
	}
	return errMsg
}

// Unwrap returns the underlying error for errors.Is and errors.As support.
func (e *CommandError) Unwrap() error {
	return e.Underlying
}

// classifyExecError maps the raw error from os/exec onto the sentinel
// taxonomy so callers never need to inspect exec internals.
func classifyExecError(err error, ctxErr error) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctxErr, context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	if errors.Is(err, exec.ErrNotFound) {
		return ErrToolMissing
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return ErrNonZeroExit
	}
	return err
}

// IsToolMissing reports whether err (possibly wrapped in a CommandError)
// means the command's executable does not exist on the host.
func IsToolMissing(err error) bool {
	return errors.Is(err, ErrToolMissing)
}

// IsTimeout reports whether err means the command hit its deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
