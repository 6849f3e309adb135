package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/belzebub40k/builder-mwu/internal/config"
	"github.com/belzebub40k/builder-mwu/internal/domain/release"
	"github.com/belzebub40k/builder-mwu/internal/logger"
	"github.com/belzebub40k/builder-mwu/internal/repository/sourcetree"
	"github.com/belzebub40k/builder-mwu/internal/service/common"
)

// errPhaseFailed marks a build tool invocation that exited non-zero.
var errPhaseFailed = errors.New("build phase failed")

// service encapsulates the build orchestration for a single run. It is
// unexported to keep the CLI decoupled from the implementation.
type service struct {
	// opts are the command line inputs of the run.
	opts *Options
	// cfg holds the build host settings.
	cfg *config.Config
	// branch is the parsed release channel.
	branch release.Branch
	// counter is the parsed release suffix number.
	counter int
	// runner executes the external build tool.
	runner common.Runner
	// sources is the builder checkout the release tag is read from.
	sources sourcetree.Repository
	// sink receives the combined output of every build tool invocation.
	sink io.Writer
	// now supplies the date embedded in experimental versions.
	now func() time.Time
}

// newService wires a run from its dependencies.
func newService(
	opts *Options,
	cfg *config.Config,
	branch release.Branch,
	counter int,
	runner common.Runner,
	sources sourcetree.Repository,
	sink io.Writer,
) *service {
	return &service{
		opts:    opts,
		cfg:     cfg,
		branch:  branch,
		counter: counter,
		runner:  runner,
		sources: sources,
		sink:    sink,
		now:     time.Now,
	}
}

// run executes the whole build lifecycle for every requested site, stopping
// at the first failure.
func (s *service) run(ctx context.Context) error {
	if s.opts.UpdateSources {
		logger.InfoKV(ctx, "Updating builder checkout", "dir", s.cfg.BuilderDir)

		if err := s.sources.UpdateFromUpstream(ctx); err != nil {
			return fmt.Errorf("update builder checkout: %w", err)
		}
	}

	id, err := s.deriveRelease(ctx)
	if err != nil {
		return err
	}

	sites := s.sites()
	logger.InfoKV(ctx, "Building release",
		"release", id.String(),
		"branch", s.branch.String(),
		"sites", strings.Join(sites, " "))

	// The tree wiped by dirclean is shared by all sites, so one wipe at
	// the very start of the run is enough.
	dircleanPending := s.opts.Dirclean

	for _, site := range sites {
		for _, phase := range release.Phases() {
			if phase == release.PhaseDirclean {
				if !dircleanPending {
					continue
				}

				dircleanPending = false
			}

			request := &release.Request{
				Site:    site,
				Release: id,
				Branch:  s.branch,
				Phase:   phase,
				Debug:   s.opts.Debug,
				Extra:   s.opts.Passthrough,
			}

			if err := s.invoke(ctx, request); err != nil {
				return err
			}
		}
	}

	logger.InfoKV(ctx, "Release built", "release", id.String())

	return nil
}

// deriveRelease computes the version string for this run. Stable and testing
// releases require the builder checkout to sit exactly on a release tag;
// experimental releases are named after the configured base and today's date.
func (s *service) deriveRelease(ctx context.Context) (release.Identifier, error) {
	if s.branch.IsExperimental() {
		return release.Experimental(s.cfg.ExperimentalVersion, s.now(), s.counter), nil
	}

	tag, err := s.sources.ExactTag(ctx)
	if err != nil {
		if errors.Is(err, sourcetree.ErrNoExactTag) {
			logger.Errorf(ctx,
				"No exact release tag on %s; check out a tagged builder release there or build with -b experimental",
				s.cfg.BuilderDir)

			return release.Identifier{}, &RunError{Code: ExitCodeNoReleaseTag, Err: err}
		}

		return release.Identifier{}, fmt.Errorf("read release tag: %w", err)
	}

	return release.FromTag(tag, s.counter), nil
}

// sites returns the site list of the run, preferring the command line over
// the settings file.
func (s *service) sites() []string {
	if len(s.opts.Sites) > 0 {
		return s.opts.Sites
	}

	return s.cfg.Sites
}

// invoke runs the build tool once, streaming its combined output to the
// sink. A non-zero exit terminates the run with the tool's own exit code.
func (s *service) invoke(ctx context.Context, request *release.Request) error {
	logger.InfoKV(ctx, "Running build phase",
		"phase", request.Phase.String(),
		"site", request.Site,
		"release", request.Release.String())

	result, err := s.runner.Run(ctx, common.Command{
		Name: s.cfg.BuildCommand,
		Args: request.Args(),
	}, s.sink)
	if err != nil {
		return fmt.Errorf("run %s for site %s: %w", s.cfg.BuildCommand, request.Site, err)
	}

	if result.ExitCode != 0 {
		logger.ErrorKV(ctx, "Build phase failed",
			"phase", request.Phase.String(),
			"site", request.Site,
			"exit_code", result.ExitCode)

		return &RunError{
			Code: result.ExitCode,
			Err: fmt.Errorf("%w: phase %s for site %s exited with code %d",
				errPhaseFailed, request.Phase, request.Site, result.ExitCode),
		}
	}

	logger.InfoKV(ctx, "Build phase finished",
		"phase", request.Phase.String(),
		"site", request.Site,
		"duration", result.Duration.String())

	return nil
}
