// Package cmd provides the CLI commands for launcherd.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pkdesk/launcherd/internal/config"
	"github.com/pkdesk/launcherd/internal/logging"
	"github.com/pkdesk/launcherd/internal/query"
	"github.com/pkdesk/launcherd/internal/reconcile"
	"github.com/pkdesk/launcherd/pkg/version"
)

var (
	configPath     string
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the launcherd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launcherd",
		Short: "Launcher file cache for package-managed desktops",
		Long: `launcherd keeps a persistent cache mapping desktop launcher files
(*.desktop) to the package that installed them, and keeps that cache
consistent as packages come and go and as launcher files change on disk.

Ownership is resolved through the package backend's query service.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("launcherd version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: user config)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.launcherd/logs/")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newRescanCmd())
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging wires slog to the rotating log file when --debug is set.
func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}

	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled",
		slog.String("log_file", logging.DefaultLogPath()),
		slog.String("version", version.Version))
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// loadConfig resolves the effective configuration for a command run.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// buildReconciler assembles the cache subsystem from configuration.
// The caller owns the returned reconciler and must Close it.
func buildReconciler(cfg *config.Config) *reconcile.Reconciler {
	client := query.NewClient(query.ClientConfig{SocketPath: cfg.Query.SocketPath})
	return reconcile.Initialize(cfg, client)
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
