package selfupdate

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	goupdate "github.com/doitdistributed/go-update"
	"gopkg.in/yaml.v3"

	"github.com/belzebub40k/builder-mwu/internal/config"
	"github.com/belzebub40k/builder-mwu/internal/logger"
	"github.com/belzebub40k/builder-mwu/internal/version"
)

var (
	errUpdateAlreadyRunning = errors.New("an update is already running")
	errBuildInProgress      = errors.New("a build is in progress, refusing to update")
	errNoUpdateFolder       = errors.New("no update folder configured")
	errEmptyManifest        = errors.New("toolchain manifest is empty")
	errUnknownRole          = errors.New("unknown role")
	errNoRoleFiles          = errors.New("unable to find files for role")
	errNoChecksum           = errors.New("checksum missing for file")
	errBadHTTPStatus        = errors.New("unexpected http status")
)

// Options are inputs accepted by the updater entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// Role decides which toolchain files this host installs.
	Role string
}

// runner holds the mutable state and helpers for a single update execution.
// It is intentionally unexported, callers go through Run.
type runner struct {
	manifest           *Manifest         // Remote manifest describing the toolchain release.
	cfg                *config.Config    // Build host settings loaded from YAML.
	client             *http.Client      // HTTP client with the configured download timeout.
	role               string            // Role whose files are installed.
	isUpdateNeeded     bool              // Whether local files differ from published checksums.
	temporaryDirectory string            // Where new files are downloaded before apply.
	downloadedFiles    map[string]string // Logical name -> local temp path.
}

// Run executes the updater lifecycle and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "mwu-updater")

	up, err := newRunner(ctx, opts)
	if err != nil {
		return err
	}

	defer up.cleanup(ctx)

	if err = up.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Update failed", "error", err)

		return err
	}

	logger.Info(ctx, "Update completed")

	return nil
}

// newRunner prepares the run and writes a marker to avoid concurrent runs.
// It refuses to start while a firmware build is in flight: swapping the
// build wrapper under a running build is never safe.
func newRunner(ctx context.Context, opts *Options) (*runner, error) {
	u := &runner{
		role:            strings.TrimSpace(opts.Role),
		downloadedFiles: make(map[string]string, defaultMapCapacity),
	}

	if _, ok := AllowedUserRoles()[u.role]; !ok {
		return u, fmt.Errorf("%w: %s", errUnknownRole, u.role)
	}

	if IsUpdateInProgress(ctx) {
		return u, errUpdateAlreadyRunning
	}

	buildRunning, err := IsBuildRunning()
	if err != nil {
		return u, fmt.Errorf("list processes: %w", err)
	}

	if buildRunning {
		return u, errBuildInProgress
	}

	updateMarker, err := os.Create(MarkerFilename)
	if err != nil {
		return u, err
	}

	if err = updateMarker.Close(); err != nil {
		return u, err
	}

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return u, err
	}

	if settings.UpdateFolder == "" {
		return u, errNoUpdateFolder
	}

	u.cfg = settings
	u.client = &http.Client{Timeout: settings.Timeout}

	return u, nil
}

// run executes the update workflow for this runner instance:
// 1) Fetch the remote manifest.
// 2) Compare toolchain versions.
// 3) Verify local file checksums.
// 4) Download and apply files when anything differs.
func (u *runner) run(ctx context.Context) error {
	logger.Info(ctx, "Downloading the toolchain manifest")

	if err := u.fillManifest(ctx); err != nil {
		return fmt.Errorf("download toolchain manifest: %w", err)
	}

	versionUpdateNeeded := u.compareVersions(ctx, version.Short(), u.manifest.VersionNumber)

	logger.Info(ctx, "Verifying checksums of the local toolchain")

	if err := u.validateChecksum(); err != nil {
		return fmt.Errorf("validate checksum: %w", err)
	}

	if !versionUpdateNeeded && !u.isUpdateNeeded {
		logger.Info(ctx, "Toolchain is current, nothing to do")

		return nil
	}

	u.logUpdateReasons(ctx, versionUpdateNeeded)

	logger.Info(ctx, "Downloading toolchain files to a temporary folder")

	if err := u.downloadFiles(ctx); err != nil {
		return fmt.Errorf("download toolchain files: %w", err)
	}

	logger.Info(ctx, "Applying downloaded files")

	if err := u.applyFiles(ctx); err != nil {
		return fmt.Errorf("apply downloaded files: %w", err)
	}

	return nil
}

// compareVersions compares the running toolchain version against the
// published one. The binaries of a toolchain release ship together, so the
// updater's own version stands in for all of them.
func (u *runner) compareVersions(ctx context.Context, localVersion, remoteVersion string) bool {
	if localVersion != remoteVersion {
		logger.InfoKV(ctx, "Version mismatch detected",
			"local", localVersion, "remote", remoteVersion)

		return true
	}

	logger.InfoKV(ctx, "Versions match, checking file integrity",
		"version", localVersion)

	// Still check checksums for integrity.
	return false
}

// logUpdateReasons logs the reasons why an update is needed.
func (u *runner) logUpdateReasons(ctx context.Context, versionUpdateNeeded bool) {
	if versionUpdateNeeded {
		logger.InfoKV(ctx, "Version update required", "reason", "version_mismatch")
	}

	if u.isUpdateNeeded {
		logger.InfoKV(ctx, "File update required", "reason", "checksum_mismatch")
	}
}

// fillManifest downloads and parses the remote toolchain manifest.
func (u *runner) fillManifest(ctx context.Context) error {
	response, err := u.getFileBodyFromServer(ctx, ManifestFilename)
	if response != nil {
		defer func() {
			_ = response.Body.Close()
		}()
	}

	if err != nil {
		return err
	}

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	var manifest Manifest
	if err = yaml.Unmarshal(data, &manifest); err != nil {
		return err
	}

	if manifest.VersionNumber == "" {
		return errEmptyManifest
	}

	u.manifest = &manifest

	return nil
}

// getFileBodyFromServer fetches a file from the update folder.
func (u *runner) getFileBodyFromServer(ctx context.Context, fileName string) (*http.Response, error) {
	updateURL, err := url.Parse(u.cfg.UpdateFolder)
	if err != nil {
		return nil, err
	}

	// Use path.Join to normalize duplicate slashes when composing the URL path.
	updateURL.Path = path.Join(updateURL.Path, fileName)
	finalURL := updateURL.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", version.UserAgent())

	response, err := u.client.Do(req)
	if err != nil {
		return response, err
	}

	if response.StatusCode != http.StatusOK {
		return response, fmt.Errorf("%s, %s: %w", finalURL, response.Status, errBadHTTPStatus)
	}

	return response, err
}

// validateChecksum compares local and published checksums to decide whether
// an update is required. It returns early on the first mismatch to avoid
// unnecessary I/O when an update is already known to be needed.
func (u *runner) validateChecksum() error {
	files, ok := u.manifest.Roles[u.role]
	if !ok {
		return fmt.Errorf("role %s: %w", u.role, errNoRoleFiles)
	}

	for _, fileName := range files {
		needsUpdate, err := u.validateFileChecksum(fileName)
		if err != nil {
			return err
		}

		if needsUpdate {
			u.isUpdateNeeded = true

			return nil
		}
	}

	return nil
}

// validateFileChecksum validates a single file's checksum against the
// manifest. Returns true if the file needs updating, false if it's current.
func (u *runner) validateFileChecksum(fileName string) (bool, error) {
	publishedChecksum, err := u.getPublishedChecksum(fileName)
	if err != nil {
		return false, err
	}

	localChecksum, err := u.getLocalChecksum(fileName)
	if err != nil {
		return false, err
	}

	return !bytes.Equal(publishedChecksum, localChecksum), nil
}

// getPublishedChecksum retrieves and decodes the manifest checksum for a file.
func (u *runner) getPublishedChecksum(fileName string) ([]byte, error) {
	publishedBase64, hasChecksum := u.manifest.Files[fileName]
	if !hasChecksum {
		return nil, fmt.Errorf("checksum for %s: %w", fileName, errNoChecksum)
	}

	publishedChecksum, err := base64.StdEncoding.DecodeString(publishedBase64)
	if err != nil {
		return nil, err
	}

	return publishedChecksum, nil
}

// getLocalChecksum retrieves the checksum of an installed file.
// Returns nil checksum if the file doesn't exist.
func (u *runner) getLocalChecksum(fileName string) ([]byte, error) {
	if _, err := os.Stat(fileName); err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, needs update.
			return nil, nil
		}

		return nil, err
	}

	return GetFileChecksum(fileName)
}

// downloadFiles downloads the role's files into a temporary directory.
func (u *runner) downloadFiles(ctx context.Context) error {
	temporaryDirectory, err := os.MkdirTemp("", "builder-mwu-updater-")
	if err != nil {
		return err
	}

	u.temporaryDirectory = temporaryDirectory

	files := u.manifest.Roles[u.role]
	for _, fileName := range files {
		var response *http.Response

		response, err = u.getFileBodyFromServer(ctx, fileName)
		if err != nil {
			if response != nil {
				_ = response.Body.Close()
			}

			return err
		}

		outputFileName := filepath.Clean(filepath.Join(temporaryDirectory, fileName))

		var outputFile *os.File

		outputFile, err = os.Create(outputFileName)
		if err != nil {
			_ = response.Body.Close()

			return err
		}

		_, err = io.Copy(outputFile, response.Body)
		if err != nil {
			_ = response.Body.Close()
			_ = outputFile.Close()

			return err
		}

		u.downloadedFiles[fileName] = outputFileName
		logger.InfoKV(ctx, "Downloaded file", "path", outputFileName)
	}

	return nil
}

// applyFiles swaps downloaded files in using go-update with checksum validation.
func (u *runner) applyFiles(ctx context.Context) error {
	for fileName, downloadedFileName := range u.downloadedFiles {
		logger.InfoKV(ctx, "Updating file", "file", fileName)

		data, err := os.ReadFile(downloadedFileName)
		if err != nil {
			return err
		}

		logger.Debug(ctx, "Looking for a checksum")

		downloadedFileBase64, ok := u.manifest.Files[fileName]
		if !ok {
			return fmt.Errorf("checksum for %s: %w", downloadedFileName, errNoChecksum)
		}

		var downloadedFileChecksum []byte

		downloadedFileChecksum, err = base64.StdEncoding.DecodeString(downloadedFileBase64)
		if err != nil {
			return err
		}

		if _, err = os.Stat(fileName); err != nil && os.IsNotExist(err) {
			if _, err = os.Create(fileName); err != nil {
				return err
			}
		}

		logger.Debug(ctx, "Applying update")

		options := &goupdate.Options{
			TargetPath: fileName,
			TargetMode: DefaultFileMode,
			Checksum:   downloadedFileChecksum,
			Hash:       DefaultChecksumFunction,
		}

		dataReader := bytes.NewReader(data)
		if err = goupdate.Apply(dataReader, *options); err != nil {
			return err
		}

		oldFileName := fileName + ".old"
		if _, err = os.Stat(oldFileName); err == nil {
			_ = os.Remove(oldFileName)
		}
	}

	return nil
}

// cleanup removes temporary artifacts and the running marker.
func (u *runner) cleanup(ctx context.Context) {
	if _, err := os.Stat(MarkerFilename); err == nil {
		_ = os.Remove(MarkerFilename)
	}

	if u.temporaryDirectory != "" {
		if _, err := os.Stat(u.temporaryDirectory); err == nil {
			_ = os.RemoveAll(u.temporaryDirectory)
		}
	}

	logger.Info(ctx, "The updater has been stopped")
}
