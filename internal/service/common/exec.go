//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// Command describes a single external process invocation.
type Command struct {
	// Name is the program to run, resolved via PATH unless it contains a
	// path separator.
	Name string
	// Args are the program arguments, not including the program name.
	Args []string
	// Dir is the working directory for the process. Empty means inherit.
	Dir string
	// Env lists extra KEY=value pairs appended to the parent environment.
	Env []string
}

// Result reports how an invocation finished.
type Result struct {
	// ExitCode is the process exit code. Zero means success.
	ExitCode int
	// Duration is the wall-clock time the invocation took.
	Duration time.Duration
}

// Runner executes external commands. Implementations stream the combined
// stdout and stderr of the process to the provided writer as it is produced.
//
// A process that starts and exits non-zero is not an error: the exit code is
// reported in the Result so callers decide what it means. An error is
// returned only when the process could not be run at all.
type Runner interface {
	Run(ctx context.Context, cmd Command, output io.Writer) (Result, error)
}

// ExecRunner runs commands on the local host via os/exec.
type ExecRunner struct{}

// Run executes the command, streaming its combined output to the writer.
func (ExecRunner) Run(ctx context.Context, cmd Command, output io.Writer) (Result, error) {
	execCmd := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	execCmd.Dir = cmd.Dir
	execCmd.Stdout = output
	execCmd.Stderr = output

	if len(cmd.Env) > 0 {
		execCmd.Env = append(os.Environ(), cmd.Env...)
	}

	started := time.Now()
	err := execCmd.Run()
	result := Result{Duration: time.Since(started)}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()

			return result, nil
		}

		return result, fmt.Errorf("run %s: %w", cmd.Name, err)
	}

	return result, nil
}
