package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/belzebub40k/builder-mwu/internal/config"
	"github.com/belzebub40k/builder-mwu/internal/service/distpack"
	"github.com/belzebub40k/builder-mwu/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// rootCmd represents the base command for preparing update metadata.
	rootCmd = &cobra.Command{
		Use:   "mwu-packager [update-folder]",
		Short: "Prepare toolchain update metadata for distribution",
		Long: `Collects the toolchain binaries and settings into a checksummed manifest.

The update folder URL is taken from the configuration file and can be
overridden by the optional argument. Build hosts running mwu-updater pull
their files from that folder.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use update folder argument if provided, otherwise rely on config.
			var updateFolder string
			if len(args) > 0 {
				updateFolder = args[0]
			}

			options := &distpack.Options{
				ConfigPath:   configPath,
				UpdateFolder: updateFolder,
			}

			return distpack.Run(ctx, options)
		},
	}
)

// Execute runs the mwu-packager CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
}
