package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/green-sentinel/internal/config"
	"github.com/oshokin/green-sentinel/internal/service/sentinel"
	"github.com/oshokin/green-sentinel/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel overrides the configured log level.
	logLevel string
	// headless disables the terminal surface.
	headless bool
	// takeover terminates a running sentinel instead of refusing to start.
	takeover bool

	// rootCmd represents the base command for running the sentinel.
	rootCmd = &cobra.Command{
		Use:   "green-sentinel",
		Short: "Watch a camera for green and raise an alarm when it disappears.",
		Long: `Starts the green presence sentinel.

Frames from a camera (or an images directory) are scanned for the configured green
range. The first frame without green raises the alarm: a looping sound (or a
fallback ring) plus vibration. The alarm keeps going until someone stops it from
the terminal screen or with "sentinel-ctl stop"; then the camera is re-acquired
and monitoring resumes.

Settings are read from ` + config.DefaultConfigFilename + ` unless --config is given.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return sentinel.Run(ctx, &sentinel.Options{
				ConfigPath: configPath,
				LogLevel:   logLevel,
				Headless:   headless,
				Takeover:   takeover,
			})
		},
	}
)

// Execute runs the green-sentinel CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to configuration file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "run without the terminal screen, logging to stdout")
	rootCmd.Flags().BoolVar(&takeover, "takeover", false, "terminate an already running sentinel")
}
