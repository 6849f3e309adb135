package integration

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// chdir switches the working directory to dir for the duration of the test
// and restores the previous one on cleanup, standing in for testing.T.Chdir
// on toolchains older than Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()

	prev, err := os.Getwd()
	require.NoError(t, err)

	require.NoError(t, os.Chdir(dir))

	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})
}
