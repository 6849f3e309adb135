package distpack

import (
	"context"
	"encoding/base64"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/belzebub40k/builder-mwu/internal/config"
	"github.com/belzebub40k/builder-mwu/internal/service/selfupdate"
)

// TestRun_WritesManifest generates a manifest from placeholder binaries and
// verifies checksums and roles.
func TestRun_WritesManifest(t *testing.T) {
	chdir(t, t.TempDir())

	// Placeholder binaries; the settings file is written by the packager
	// itself before hashing.
	for _, name := range selfupdate.FilesWithChecksum() {
		if name == config.DefaultConfigFilename {
			continue
		}

		require.NoError(t, os.WriteFile(name, []byte("binary "+name), 0o755))
	}

	options := &Options{
		ConfigPath:   config.DefaultConfigFilename,
		UpdateFolder: "https://updates.local/builder-mwu",
	}

	require.NoError(t, Run(context.Background(), options))

	// The settings file was persisted with the update folder.
	cfg, err := config.Load(config.DefaultConfigFilename)
	require.NoError(t, err)
	require.Equal(t, options.UpdateFolder, cfg.UpdateFolder)

	// The manifest exists and covers every artifact with a valid checksum.
	contents, err := os.ReadFile(selfupdate.ManifestFilename)
	require.NoError(t, err)

	var manifest selfupdate.Manifest
	require.NoError(t, yaml.Unmarshal(contents, &manifest))
	require.NotEmpty(t, manifest.VersionNumber)
	require.Len(t, manifest.Roles, 2)

	for _, name := range selfupdate.FilesWithChecksum() {
		encoded, ok := manifest.Files[name]
		require.True(t, ok, "missing checksum for %s", name)

		decoded, err := base64.StdEncoding.DecodeString(encoded)
		require.NoError(t, err)

		expected, err := selfupdate.GetFileChecksum(name)
		require.NoError(t, err)
		require.Equal(t, expected, decoded)
	}
}

// TestRun_RefusesWhileUpdating verifies packaging aborts when an update
// marker is present.
func TestRun_RefusesWhileUpdating(t *testing.T) {
	chdir(t, t.TempDir())

	marker, err := os.Create(selfupdate.MarkerFilename)
	require.NoError(t, err)
	require.NoError(t, marker.Close())

	err = Run(context.Background(), &Options{
		ConfigPath:   config.DefaultConfigFilename,
		UpdateFolder: "https://updates.local/builder-mwu",
	})
	require.ErrorIs(t, err, errUpdateRunning)
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
