package runlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestOpenCreatesFile verifies the log is created on first use and starts
// with the run banner.
func TestOpenCreatesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "run.log")

	log, err := Open(path)
	require.NoError(t, err)
	require.NotEmpty(t, log.ID())
	require.Equal(t, path, log.Path())

	_, err = log.Write([]byte("hello\n"))
	require.NoError(t, err)
	require.NoError(t, log.Close())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(contents), "run "+log.ID())
	require.Contains(t, string(contents), "hello")
}

// TestOpenAppendsAcrossRuns verifies earlier runs stay in place and each run
// gets its own banner.
func TestOpenAppendsAcrossRuns(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.log")

	first, err := Open(path)
	require.NoError(t, err)
	_, err = first.Write([]byte("first run output\n"))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	_, err = second.Write([]byte("second run output\n"))
	require.NoError(t, err)
	require.NoError(t, second.Close())

	require.NotEqual(t, first.ID(), second.ID())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(contents)
	require.Contains(t, text, "first run output")
	require.Contains(t, text, "second run output")
	require.Contains(t, text, first.ID())
	require.Contains(t, text, second.ID())

	// Output order follows run order.
	require.Less(t,
		strings.Index(text, "first run output"),
		strings.Index(text, "second run output"))
}
