package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/belzebub40k/builder-mwu/internal/config"
	"github.com/belzebub40k/builder-mwu/internal/service/builder"
	"github.com/belzebub40k/builder-mwu/internal/version"
)

// errUnexpectedArgument is returned for positional arguments that are not
// separated from the flags by a double dash.
var errUnexpectedArgument = errors.New("unexpected argument, build tool arguments must follow a double dash")

var (
	// configPath to the configuration YAML file.
	configPath string
	// branchName selects the release channel to build.
	branchName string
	// releaseSuffix numbers repeated builds of the same release.
	releaseSuffix string
	// siteList optionally overrides the configured sites, space separated.
	siteList string
	// dirclean wipes the shared build tree before the first site.
	dirclean bool
	// debug enables debug logging and verbose build tool output.
	debug bool
	// updateSources pulls the builder checkout before building.
	updateSources bool

	// rootCmd represents the base command for running firmware release builds.
	rootCmd = &cobra.Command{
		Use:   "mwu-build [flags] [-- build-tool-args]",
		Short: "Build, sign and deploy firmware releases for the configured sites",
		Long: `Runs the full firmware release lifecycle for every configured site.

The release identifier is derived from the branch: stable and testing builds
require an exactly tagged builder checkout, experimental builds use the
configured base version with a date stamped suffix. Each site then passes
through the update, clean, build, sign and deploy stages of the build tool.
Arguments after a double dash are handed to the build tool unchanged.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			passthrough, err := splitPassthrough(args, cmd.ArgsLenAtDash())
			if err != nil {
				return err
			}

			options := &builder.Options{
				Branch:        branchName,
				Dirclean:      dirclean,
				Debug:         debug,
				Suffix:        releaseSuffix,
				Sites:         strings.Fields(siteList),
				UpdateSources: updateSources,
				Passthrough:   passthrough,
				ConfigPath:    configPath,
			}

			err = builder.Run(ctx, options)
			if err != nil && builder.ExitCode(err) != builder.ExitCodeUsage {
				// The failure is already logged, repeating the usage help
				// would only bury it.
				cmd.SilenceUsage = true
			}

			return err
		},
	}
)

// Execute runs the mwu-build CLI and exits with the run's status code on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(builder.ExitCode(err))
	}
}

// splitPassthrough validates positional arguments and returns the part
// destined for the build tool. Anything in front of the double dash is a
// usage error because the command itself takes no positional arguments.
func splitPassthrough(args []string, lenAtDash int) ([]string, error) {
	if len(args) == 0 {
		return nil, nil
	}

	if lenAtDash != 0 {
		return nil, builder.UsageError(errUnexpectedArgument)
	}

	return args, nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&branchName, "branch", "b", "", "release branch to build: stable, testing or experimental")
	rootCmd.Flags().BoolVarP(&dirclean, "dirclean", "c", false, "wipe the build tree before the first site")
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "enable debug output, also for the build tool")
	rootCmd.Flags().StringVarP(&releaseSuffix, "release-suffix", "r", "1", "suffix number for repeated builds of a release")
	rootCmd.Flags().StringVarP(&siteList, "sites", "s", "", "space separated sites to build instead of the configured ones")
	rootCmd.Flags().BoolVarP(&updateSources, "update-sources", "u", false, "update the builder checkout first (experimental only)")
	rootCmd.Flags().StringVar(&configPath, "config", config.DefaultConfigFilename, "path to configuration file")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return builder.UsageError(err)
	})
}
