package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Empty settings pick up every default.
	settings := new(Config)

	err := Validate(settings)
	require.NoError(t, err)
	require.Equal(t, DefaultBuilderDir, settings.BuilderDir)
	require.Equal(t, DefaultBuildCommand, settings.BuildCommand)
	require.Equal(t, DefaultSites(), settings.Sites)
	require.Equal(t, DefaultLogFilename, settings.LogFile)
	require.Equal(t, DefaultExperimentalVersion, settings.ExperimentalVersion)
	require.Equal(t, DefaultTimeout, settings.Timeout)

	// Blank site entry.
	settings = &Config{
		Sites: []string{"ffmz", ""},
	}

	err = Validate(settings)
	require.Error(t, err)

	// Whitespace inside a site code.
	settings = &Config{
		Sites: []string{"ffmz ffwi"},
	}

	err = Validate(settings)
	require.Error(t, err)

	// Bad update folder.
	settings = &Config{
		UpdateFolder: "not a url",
	}

	err = Validate(settings)
	require.Error(t, err)

	// Okay with update folder.
	settings = &Config{
		Sites:        []string{"ffmz"},
		UpdateFolder: "https://example.com/x",
	}

	err = Validate(settings)
	require.NoError(t, err)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := &Config{
		BuilderDir:   "site/gluon",
		BuildCommand: "./build.sh",
		Sites:        []string{"ffmz", "ffwi", "ffdarmstadt"},
		UpdateFolder: "https://updates.local/",
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.BuilderDir, loaded.BuilderDir)
	require.Equal(t, settings.Sites, loaded.Sites)
	require.Equal(t, settings.UpdateFolder, loaded.UpdateFolder)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoadMissingFile ensures a bare checkout works from built-in defaults.
func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nope.yaml")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, Default(), loaded)
}
