package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/belzebub40k/builder-mwu/internal/config"
	"github.com/belzebub40k/builder-mwu/internal/service/selfupdate"
	"github.com/belzebub40k/builder-mwu/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// rootCmd represents the base command for downloading and applying updates.
	rootCmd = &cobra.Command{
		Use:       "mwu-updater [builder|maintainer]",
		Short:     "Download and apply toolchain updates from the update folder",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{selfupdate.RoleBuilder, selfupdate.RoleMaintainer},
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &selfupdate.Options{
				ConfigPath: configPath,
				Role:       args[0],
			}

			return selfupdate.Run(ctx, options)
		},
	}
)

// Execute runs the mwu-updater CLI and exits with non-zero status on error.
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
