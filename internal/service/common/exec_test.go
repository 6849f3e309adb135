//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestExecRunnerCombinedOutput ensures stdout and stderr both reach the writer.
func TestExecRunnerCombinedOutput(t *testing.T) {
	t.Parallel()

	var output bytes.Buffer

	result, err := ExecRunner{}.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo out; echo err 1>&2"},
	}, &output)
	require.NoError(t, err)
	require.Equal(t, 0, result.ExitCode)
	require.Contains(t, output.String(), "out")
	require.Contains(t, output.String(), "err")
}

// TestExecRunnerExitCode ensures a non-zero exit is reported, not returned
// as an error.
func TestExecRunnerExitCode(t *testing.T) {
	t.Parallel()

	var output bytes.Buffer

	result, err := ExecRunner{}.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "exit 42"},
	}, &output)
	require.NoError(t, err)
	require.Equal(t, 42, result.ExitCode)
}

// TestExecRunnerMissingBinary ensures an unrunnable command surfaces as an error.
func TestExecRunnerMissingBinary(t *testing.T) {
	t.Parallel()

	var output bytes.Buffer

	_, err := ExecRunner{}.Run(context.Background(), Command{
		Name: "definitely-not-installed-anywhere",
	}, &output)
	require.Error(t, err)
}
