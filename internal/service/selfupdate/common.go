package selfupdate

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/belzebub40k/builder-mwu/internal/config"
	"github.com/belzebub40k/builder-mwu/internal/logger"
	"github.com/belzebub40k/builder-mwu/internal/version"

	// Ensure SHA512 available for checksum calculation.
	_ "crypto/sha512"
)

var errHashUnavailable = errors.New("hash function unavailable")

const (
	// ManifestFilename stores the toolchain manifest published next to the artifacts.
	ManifestFilename = "builder-mwu-tools.yaml"

	// MarkerFilename marks that an update is running right now to avoid parallel execution.
	MarkerFilename = "builder-mwu-update-marker.bin"

	// DefaultFileMode is used when producing artifacts for distribution.
	DefaultFileMode os.FileMode = 0o755

	// DefaultChecksumFunction is used to calculate artifact hashes.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512

	// Base executable names; platform helpers append extension when needed.
	baseBuildExecutable    = "mwu-build"
	basePackagerExecutable = "mwu-packager"
	baseUpdaterExecutable  = "mwu-updater"

	// markerLifetime is the period after which a stale update marker is ignored.
	markerLifetime = 30 * time.Second

	// defaultMapCapacity is the default initial capacity for maps and slices.
	defaultMapCapacity = 8
)

// Toolchain roles a host installs files for.
const (
	// RoleBuilder is a host that only runs firmware builds.
	RoleBuilder = "builder"
	// RoleMaintainer is a host that also publishes toolchain updates.
	RoleMaintainer = "maintainer"
)

// AllowedUserRoles returns artifact lists per role for the current platform.
func AllowedUserRoles() map[string][]string {
	return map[string][]string{
		RoleBuilder: {
			buildExecutable(),
			updaterExecutable(),
			config.DefaultConfigFilename,
		},
		RoleMaintainer: {
			buildExecutable(),
			packagerExecutable(),
			updaterExecutable(),
			config.DefaultConfigFilename,
		},
	}
}

// FilesWithChecksum returns the list of artifacts to hash for this platform.
func FilesWithChecksum() []string {
	return []string{
		buildExecutable(),
		packagerExecutable(),
		updaterExecutable(),
		config.DefaultConfigFilename,
	}
}

// Manifest describes a published toolchain release.
type Manifest struct {
	// VersionNumber is the semantic version of this toolchain release.
	VersionNumber string `yaml:"version"`
	// Files maps filenames to their base64-encoded checksums.
	Files map[string]string `yaml:"files"`
	// Roles maps role names to the files a host with that role installs.
	Roles map[string][]string `yaml:"roles"`
}

// NewManifest produces a Manifest for the running toolchain version.
func NewManifest() *Manifest {
	return &Manifest{
		VersionNumber: version.Short(),
		Files:         make(map[string]string, defaultMapCapacity),
		Roles:         make(map[string][]string, defaultMapCapacity),
	}
}

// GetFileChecksum returns checksum bytes for a file using DefaultChecksumFunction.
func GetFileChecksum(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	if !DefaultChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := DefaultChecksumFunction.New()
	if _, err = hasher.Write(contents); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	hash := hasher.Sum(nil)

	return hash, nil
}

// IsUpdateInProgress checks presence of a marker file and removes it when it
// looks stale, so a crashed update does not block the host forever.
func IsUpdateInProgress(ctx context.Context) bool {
	fileInfo, err := os.Stat(MarkerFilename)
	if err == nil {
		if time.Since(fileInfo.ModTime()) <= markerLifetime {
			return true
		}

		logger.Info(ctx, "The update marker is stale, removing it")

		if err = os.Remove(MarkerFilename); err != nil {
			return true
		}

		return false
	}

	if errors.Is(err, os.ErrNotExist) {
		return false
	}

	logger.Infof(ctx, "Unable to read update marker: %v", err)

	return false
}

// IsBuildRunning reports whether a build wrapper process is alive. Swapping
// binaries under a running build is never safe, so the updater aborts
// instead.
func IsBuildRunning() (bool, error) {
	processes, err := ps.Processes()
	if err != nil {
		return false, err
	}

	thisProcessID := os.Getpid()

	for _, process := range processes {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() == buildExecutable() {
			return true, nil
		}
	}

	return false, nil
}

// getExecutableExtension returns ".exe" on Windows and "" elsewhere.
func getExecutableExtension() string {
	if strings.Contains(strings.ToLower(runtime.GOOS), "windows") {
		return ".exe"
	}

	return ""
}

func buildExecutable() string {
	return baseBuildExecutable + getExecutableExtension()
}

func packagerExecutable() string {
	return basePackagerExecutable + getExecutableExtension()
}

func updaterExecutable() string {
	return baseUpdaterExecutable + getExecutableExtension()
}
