package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the build-host settings shared by the builder-mwu binaries.
type Config struct {
	// BuilderDir is the path to the firmware builder checkout (a git
	// submodule of the site repository). Release tags are read from it.
	BuilderDir string `yaml:"builder_dir"`
	// BuildCommand is the external tool invoked once per site and phase.
	BuildCommand string `yaml:"build_command"`
	// Sites lists the site codes built when none are given on the command line.
	Sites []string `yaml:"sites"`
	// LogFile is the path of the append-only run log.
	LogFile string `yaml:"log_file"`
	// LogLevel is the minimum console log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
	// ExperimentalVersion is the fixed base version used for experimental
	// builds, which never come from a release tag.
	ExperimentalVersion string `yaml:"experimental_version"`
	// UpdateFolder is the URL where toolchain update artifacts are hosted.
	UpdateFolder string `yaml:"update_folder"`
	// Timeout is the duration for manifest and artifact downloads.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for build-host settings.
	DefaultConfigFilename = "builder-mwu-settings.yaml"

	// DefaultLogFilename is the default filename for the run log.
	DefaultLogFilename = "builder-mwu.log"

	// DefaultBuilderDir is the default location of the firmware builder checkout.
	DefaultBuilderDir = "gluon"

	// DefaultBuildCommand is the default external build tool.
	DefaultBuildCommand = "./build.sh"

	// DefaultExperimentalVersion is the fallback base version for experimental builds.
	DefaultExperimentalVersion = "2021.1"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 30 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

// DefaultSites returns the fixed built-in site list used when neither the
// command line nor the settings file provides one.
func DefaultSites() []string {
	return []string{"ffmz", "ffwi"}
}

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errEmptySite is returned when the site list contains a blank entry.
	errEmptySite = errors.New("site list contains an empty entry")
	// errSiteHasWhitespace is returned when a site code contains whitespace.
	errSiteHasWhitespace = errors.New("site code must not contain whitespace")
)

// Default returns a configuration with all fields at their built-in values.
func Default() *Config {
	return &Config{
		BuilderDir:          DefaultBuilderDir,
		BuildCommand:        DefaultBuildCommand,
		Sites:               DefaultSites(),
		LogFile:             DefaultLogFilename,
		ExperimentalVersion: DefaultExperimentalVersion,
		Timeout:             DefaultTimeout,
	}
}

// Load reads configuration from the provided path and validates essential
// fields. A missing file is not an error: the built-in defaults apply, so a
// bare checkout builds without any setup.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting,
// filling defaults for anything left unset.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.BuilderDir == "" {
		settings.BuilderDir = DefaultBuilderDir
	}

	if settings.BuildCommand == "" {
		settings.BuildCommand = DefaultBuildCommand
	}

	if len(settings.Sites) == 0 {
		settings.Sites = DefaultSites()
	}

	for _, site := range settings.Sites {
		if site == "" {
			return errEmptySite
		}

		if strings.ContainsAny(site, " \t") {
			return fmt.Errorf("%q: %w", site, errSiteHasWhitespace)
		}
	}

	if settings.LogFile == "" {
		settings.LogFile = DefaultLogFilename
	}

	if settings.ExperimentalVersion == "" {
		settings.ExperimentalVersion = DefaultExperimentalVersion
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.UpdateFolder == "" {
		return nil
	}

	if _, err := url.ParseRequestURI(settings.UpdateFolder); err != nil {
		return fmt.Errorf("invalid update folder URI: %w", err)
	}

	return nil
}
