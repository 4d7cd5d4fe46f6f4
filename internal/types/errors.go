package types

import (
	"fmt"
	"strings"
)

// ParseError reports a legacy declaration that matches no recognized
// grammar. It is never fatal: the reader records it and moves on.
type ParseError struct {
	Origin Origin
	Text   string
	Reason string
}

func (e ParseError) Error() string {
	if e.Origin.File == "" {
		return fmt.Sprintf("parse error: %s: %q", e.Reason, e.Text)
	}
	return fmt.Sprintf("%s:%d: %s: %q", e.Origin.File, e.Origin.Line, e.Reason, e.Text)
}

// WriteError aborts the migration before anything is written, e.g. when
// an existing pyproject.toml cannot be parsed.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cannot update %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// ExternalCommandError carries the exit status and captured output of a
// failed package manager invocation.
type ExternalCommandError struct {
	Step     string
	Command  []string
	ExitCode int
	Output   string
}

func (e *ExternalCommandError) Error() string {
	msg := fmt.Sprintf("%s failed (exit %d): %s", e.Step, e.ExitCode, strings.Join(e.Command, " "))
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

// CommandResult is the outcome of one external process run.
type CommandResult struct {
	ExitCode int
	Output   string
}
