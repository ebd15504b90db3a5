package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/andresmejia3/spotter/internal/config"
	"github.com/andresmejia3/spotter/internal/logging"
)

var (
	// Cfg is the resolved configuration shared by subcommands.
	Cfg *config.Config
	// cfgPath is the optional YAML config file.
	cfgPath string
	verbose bool
)

// Version is the application version.
const Version = "0.0.1"

var rootCmd = &cobra.Command{
	Use:     "spotter",
	Short:   "Bucket Object-Detection Scanner",
	Version: Version, // This enables the --version flag
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if verbose {
			err = logging.InitDevelopment()
		} else {
			err = logging.InitProduction()
		}
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		// Defaults, then YAML file, then environment. Flags are folded in
		// by each subcommand so "flag beats env beats file" holds.
		Cfg, err = config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// This tells Cobra not to print the version in the help text, which is cleaner.
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; env vars override it)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Console-friendly debug logging")
}
