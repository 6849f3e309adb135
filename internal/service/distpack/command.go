package distpack

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/belzebub40k/builder-mwu/internal/config"
	"github.com/belzebub40k/builder-mwu/internal/logger"
	"github.com/belzebub40k/builder-mwu/internal/service/selfupdate"
)

// Options contains inputs for the packager entry point.
type Options struct {
	// ConfigPath is an optional path to persist build host settings.
	ConfigPath string
	// UpdateFolder is the URL where toolchain artifacts will be uploaded.
	UpdateFolder string
}

// packager prepares the toolchain manifest for distribution.
// It is unexported, callers go through Run which handles setup and validation.
type packager struct {
	// cfg holds the build host settings including the update folder.
	cfg *config.Config
	// cfgFilename is the path where the settings are saved.
	cfgFilename string
	// manifest contains the toolchain release with files and roles.
	manifest *selfupdate.Manifest
}

// errUpdateRunning indicates that an attempt was made to package while an
// update is applying files.
var errUpdateRunning = errors.New("an update is running now")

// Run executes the packaging workflow.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "mwu-packager")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.UpdateFolder != "" {
		cfg.UpdateFolder = opts.UpdateFolder
	}

	if err = config.Validate(cfg); err != nil {
		return err
	}

	pkg, err := newPackager(ctx, opts.ConfigPath, cfg)
	if err != nil {
		return fmt.Errorf("initialize packager: %w", err)
	}

	if err = pkg.run(ctx); err != nil {
		return fmt.Errorf("packager failed: %w", err)
	}

	logger.Info(ctx, "Packager completed successfully")

	return nil
}

// newPackager creates a packager with the provided settings and persists them
// so the settings file ships with the same content it was hashed with.
func newPackager(ctx context.Context, configFilename string, settings *config.Config) (*packager, error) {
	if selfupdate.IsUpdateInProgress(ctx) {
		return nil, errUpdateRunning
	}

	if err := config.Save(configFilename, settings); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	return &packager{
		cfg:         settings,
		cfgFilename: configFilename,
		manifest:    selfupdate.NewManifest(),
	}, nil
}

// run populates and writes the toolchain manifest to disk.
func (p *packager) run(ctx context.Context) error {
	logger.Info(ctx, "Preparing toolchain manifest")

	if err := p.fillManifest(); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Saving toolchain manifest", "path", selfupdate.ManifestFilename)

	if err := p.saveManifest(); err != nil {
		return err
	}

	p.printNextSteps(ctx)

	return nil
}

// fillManifest populates roles and file checksums into the manifest.
func (p *packager) fillManifest() error {
	for role, files := range selfupdate.AllowedUserRoles() {
		p.manifest.Roles[role] = append([]string(nil), files...)
	}

	for _, fileName := range selfupdate.FilesWithChecksum() {
		if _, err := os.Stat(fileName); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", fileName, os.ErrNotExist)
		} else if err != nil {
			return fmt.Errorf("stat %s: %w", fileName, err)
		}

		checksum, err := selfupdate.GetFileChecksum(fileName)
		if err != nil {
			return err
		}

		p.manifest.Files[fileName] = base64.StdEncoding.EncodeToString(checksum)
	}

	return nil
}

// saveManifest writes the manifest to the standard ManifestFilename.
func (p *packager) saveManifest() error {
	contents, err := yaml.Marshal(p.manifest)
	if err != nil {
		return err
	}

	return os.WriteFile(selfupdate.ManifestFilename, contents, selfupdate.DefaultFileMode)
}

// printNextSteps logs human-readable guidance for next actions with the created files.
func (p *packager) printNextSteps(ctx context.Context) {
	files := make([]string, 0, len(p.manifest.Files)+1)
	for fileName := range p.manifest.Files {
		files = append(files, fileName)
	}

	files = append(files, selfupdate.ManifestFilename)
	sort.Strings(files)

	var builder strings.Builder

	builder.WriteString("You should upload the following files to the folder ")
	builder.WriteString(p.cfg.UpdateFolder)
	builder.WriteString(":\n")

	for i, name := range files {
		if i == 0 {
			builder.WriteString(name)
		} else {
			builder.WriteString(",\n")
			builder.WriteString(name)
		}
	}

	roles := make([]string, 0, len(p.manifest.Roles))
	for role := range p.manifest.Roles {
		roles = append(roles, role)
	}

	sort.Strings(roles)

	for _, role := range roles {
		builder.WriteString("\n\nFor a build host with the \"")
		builder.WriteString(role)
		builder.WriteString("\" role, copy the following files to the local computer:\n")

		fileList := p.manifest.Roles[role]
		for i, name := range fileList {
			if i == 0 {
				builder.WriteString(name)
			} else {
				builder.WriteString(",\n")
				builder.WriteString(name)
			}
		}

		builder.WriteString("\nTo keep the host current, run: mwu-updater ")
		builder.WriteString(role)
	}

	logger.Info(ctx, builder.String())
}
