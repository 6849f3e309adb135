package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/belzebub40k/builder-mwu/internal/config"
	"github.com/belzebub40k/builder-mwu/internal/domain/release"
	"github.com/belzebub40k/builder-mwu/internal/logger"
	"github.com/belzebub40k/builder-mwu/internal/repository/sourcetree"
	"github.com/belzebub40k/builder-mwu/internal/runlog"
	"github.com/belzebub40k/builder-mwu/internal/service/common"
)

// Options are inputs accepted by the build wrapper entry point.
type Options struct {
	// Branch is the release channel to build for (stable, testing or
	// experimental).
	Branch string
	// Dirclean wipes the shared build tree before the first site.
	Dirclean bool
	// Debug enables debug logging and verbose build tool tracing.
	Debug bool
	// Suffix is the release suffix number, "1" unless overridden.
	Suffix string
	// Sites overrides the configured site list.
	Sites []string
	// UpdateSources moves the builder checkout to its latest upstream
	// revision before the release is derived. Experimental builds only.
	UpdateSources bool
	// Passthrough holds arguments forwarded verbatim to the build tool.
	Passthrough []string
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
}

var (
	// errUpdateNeedsExperimental is returned when -u is combined with a
	// tag-driven release channel.
	errUpdateNeedsExperimental = errors.New("updating the builder checkout is only allowed for experimental builds")
	// errBadSuffix is returned when the release suffix is not a positive number.
	errBadSuffix = errors.New("release suffix must be a number greater than zero")
)

// Run validates the request and executes the build lifecycle. Usage errors
// are reported before anything touches the disk; in particular the run log
// is not created for them.
func Run(ctx context.Context, opts *Options) error {
	branch, err := release.ParseBranch(opts.Branch)
	if err != nil {
		return UsageError(err)
	}

	if opts.UpdateSources && !branch.IsExperimental() {
		return UsageError(errUpdateNeedsExperimental)
	}

	counter, err := parseSuffix(opts.Suffix)
	if err != nil {
		return UsageError(err)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if level, known := logger.ParseLogLevel(cfg.LogLevel); known {
		logger.SetLevel(level)
	}

	if opts.Debug {
		logger.SetLevel(zapcore.DebugLevel)
	}

	runLog, err := runlog.Open(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}

	defer func() {
		_ = runLog.Close()
	}()

	// From here on every progress and error message lands in the run log
	// as well as on the console.
	previous := logger.Logger()
	logger.SetLogger(logger.NewTee(nil, runLog))

	defer logger.SetLogger(previous)

	ctx = logger.WithName(ctx, "mwu-build")

	if err = ensureSingleInstance(); err != nil {
		logger.Errorf(ctx, "Refusing to start: %v", err)

		return err
	}

	actor, err := common.DetectActor()
	if err != nil {
		return fmt.Errorf("detect actor: %w", err)
	}

	logger.InfoKV(ctx, "Build run started",
		"run_id", runLog.ID(),
		"actor", actor.String(),
		"branch", branch.String(),
		"log_file", runLog.Path())

	var (
		runner = common.ExecRunner{}
		sink   = io.MultiWriter(os.Stdout, runLog)
	)

	svc := newService(opts, cfg, branch, counter,
		runner, sourcetree.NewGitRepository(cfg.BuilderDir, runner, sink), sink)

	if err = svc.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Build run failed", "error", err)

		return err
	}

	logger.Info(ctx, "Build run completed")

	return nil
}

// parseSuffix validates the release suffix number.
func parseSuffix(raw string) (int, error) {
	counter, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || counter < 1 {
		return 0, fmt.Errorf("%w: %q", errBadSuffix, raw)
	}

	return counter, nil
}
