package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/screwdriver-cd/scm-bitbucket/internal/config"
	"github.com/screwdriver-cd/scm-bitbucket/internal/log"
)

var (
	settings *config.Settings

	// Global flags.
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "scm-bitbucket",
	Short: "Bitbucket Cloud SCM adapter",
	Long: `scm-bitbucket adapts Bitbucket Cloud to Screwdriver's SCM contract:
it normalizes webhook deliveries into canonical events, registers build
trigger webhooks, and resolves commits, files and permissions through the
Bitbucket REST API.

Quick Start:
  scm-bitbucket serve      Run the webhook listener
  scm-bitbucket version    Print version information`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load .env first so credentials are visible to settings loading
		if err := config.LoadDotEnvFromCwd(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load %s/%s: %v\n",
				config.ConfigDir, config.EnvFileName, err)
		}

		var err error
		settings, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}

		log.Configure(log.Options{
			Verbose: verbose,
			JSON:    settings.LogJSON,
		})

		return nil
	},
}

// Execute runs the root command with signal handling.
func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the settings file")
}
