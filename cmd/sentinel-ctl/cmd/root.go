package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/green-sentinel/internal/service/ctl"
	"github.com/oshokin/green-sentinel/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// wait makes stop block until the alarm is silenced.
	wait bool
	// jsonOutput prints the raw status document.
	jsonOutput bool

	// rootCmd represents the base command of the control client.
	rootCmd = &cobra.Command{
		Use:   "sentinel-ctl",
		Short: "Control a running green-sentinel.",
		Long: `Talks to the control endpoint of a running green-sentinel.

The endpoint address is read from the configuration file; each subcommand also
accepts it as an argument.`,
		SilenceUsage: true,
	}

	// stopCmd silences the alarm.
	stopCmd = &cobra.Command{
		Use:   "stop [address]",
		Short: "Silence the alarm and resume monitoring.",
		Long: `Sends a stop command on behalf of the current user.

Stopping while no alarm is active does nothing. With --wait the command keeps
polling until the sentinel reports that it is monitoring again.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return ctl.Stop(ctx, options(cmd, args))
		},
	}

	// statusCmd prints the status.
	statusCmd = &cobra.Command{
		Use:   "status [address]",
		Short: "Print the sentinel status.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return ctl.Status(ctx, options(cmd, args))
		},
	}
)

func options(cmd *cobra.Command, args []string) *ctl.Options {
	// Use address argument if provided, otherwise rely on config.
	var address string
	if len(args) > 0 {
		address = args[0]
	}

	return &ctl.Options{
		ConfigPath: cfgPath,
		Address:    address,
		Wait:       wait,
		JSON:       jsonOutput,
		Output:     cmd.OutOrStdout(),
	}
}

// Execute runs the sentinel-ctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to configuration file")
	stopCmd.Flags().BoolVarP(&wait, "wait", "w", false, "wait until the alarm is silenced")
	statusCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the raw status document as JSON")

	rootCmd.AddCommand(stopCmd, statusCmd)
}
