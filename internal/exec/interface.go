// Package exec provides an interface for running external commands.
package exec

import (
	"context"
	"fmt"
	"strings"
)

// CommandRunner defines the interface for running external commands.
// This abstraction allows substituting command execution in tests.
type CommandRunner interface {
	// Run executes name with args and returns its standard output.
	// A failed command returns a *CommandError carrying its standard error.
	Run(ctx context.Context, name string, args ...string) (stdout []byte, err error)

	// LookPath reports the resolved path of an executable.
	LookPath(name string) (string, error)
}

// CommandError describes a command that could not start or exited non-zero.
type CommandError struct {
	Name     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.ExitCode > 0 {
		return fmt.Sprintf("%s exited with status %d: %s", e.Name, e.ExitCode, msg)
	}
	return fmt.Sprintf("%s failed: %s", e.Name, msg)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
