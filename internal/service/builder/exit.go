package builder

import "errors"

// Fixed exit codes of the build wrapper. Failing build tool invocations
// terminate the run with their own exit code instead; the tool reserves 128
// for its non-empty output directory guard.
const (
	// ExitCodeUsage is returned for invalid or missing command line
	// arguments. The run log is not touched in this case.
	ExitCodeUsage = 126
	// ExitCodeNoReleaseTag is returned when a stable or testing build is
	// attempted while the builder checkout is not on an exact release tag.
	ExitCodeNoReleaseTag = 127
)

// RunError carries the exit code a failed run must terminate the process
// with.
type RunError struct {
	// Code is the process exit code.
	Code int
	// Err is the underlying cause.
	Err error
}

// Error returns the message of the underlying cause.
func (e *RunError) Error() string {
	return e.Err.Error()
}

// Unwrap exposes the underlying cause for errors.Is and errors.As.
func (e *RunError) Unwrap() error {
	return e.Err
}

// UsageError marks err as a command line usage failure.
func UsageError(err error) error {
	return &RunError{Code: ExitCodeUsage, Err: err}
}

// ExitCode maps an error returned by Run onto the process exit code. A nil
// error maps to zero and errors without an explicit code map to one.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.Code
	}

	return 1
}
