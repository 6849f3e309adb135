package selfupdate

import (
	"context"
	"crypto/sha512"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/belzebub40k/builder-mwu/internal/config"
)

// TestGetFileChecksum verifies the checksum matches a direct SHA-512.
func TestGetFileChecksum(t *testing.T) {
	t.Parallel()

	path := t.TempDir() + "/artifact.bin"
	contents := []byte("toolchain artifact")
	require.NoError(t, os.WriteFile(path, contents, 0o600))

	checksum, err := GetFileChecksum(path)
	require.NoError(t, err)

	expected := sha512.Sum512(contents)
	require.Equal(t, expected[:], checksum)
}

// TestRolesCoverChecksummedFiles verifies every role file has a checksum entry.
func TestRolesCoverChecksummedFiles(t *testing.T) {
	t.Parallel()

	checksummed := make(map[string]struct{})
	for _, name := range FilesWithChecksum() {
		checksummed[name] = struct{}{}
	}

	roles := AllowedUserRoles()
	require.Contains(t, roles, RoleBuilder)
	require.Contains(t, roles, RoleMaintainer)

	for role, files := range roles {
		require.NotEmpty(t, files, "role %s", role)

		for _, name := range files {
			require.Contains(t, checksummed, name, "role %s", role)
		}
	}

	// Every role keeps itself updatable and configured.
	for _, files := range roles {
		require.Contains(t, files, updaterExecutable())
		require.Contains(t, files, config.DefaultConfigFilename)
	}
}

// TestIsUpdateInProgress verifies marker detection and stale recovery.
func TestIsUpdateInProgress(t *testing.T) {
	chdir(t, t.TempDir())

	ctx := context.Background()

	// No marker.
	require.False(t, IsUpdateInProgress(ctx))

	// Fresh marker.
	marker, err := os.Create(MarkerFilename)
	require.NoError(t, err)
	require.NoError(t, marker.Close())
	require.True(t, IsUpdateInProgress(ctx))

	// Stale marker is removed.
	past := time.Now().Add(-2 * markerLifetime)
	require.NoError(t, os.Chtimes(MarkerFilename, past, past))
	require.False(t, IsUpdateInProgress(ctx))

	_, err = os.Stat(MarkerFilename)
	require.ErrorIs(t, err, os.ErrNotExist)
}

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
