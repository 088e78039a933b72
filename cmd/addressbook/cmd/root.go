// Package cmd provides the CLI commands for addressbook.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/addressbook/internal/config"
	"github.com/Aman-CERP/addressbook/internal/logging"
	"github.com/Aman-CERP/addressbook/internal/profiling"
	"github.com/Aman-CERP/addressbook/pkg/version"
)

// Global flags shared by every subcommand.
var (
	debugMode      bool
	configPath     string
	jsonOutput     bool
	loggingCleanup func()
)

// Profiling flags
var (
	profileCfg profiling.Config
	profiler   *profiling.Session
)

// NewRootCmd creates the root command for the addressbook CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addressbook",
		Short: "In-memory contact directory with a daemon and MCP server",
		Long: `addressbook keeps a contact directory in memory and serves it to
CLI commands over a unix socket, or to AI assistants over MCP stdio.

Start the directory with 'addressbook serve', then manage contacts with
create, update, delete, search, list and duplicates.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("addressbook version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.addressbook/logs/")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (overrides the user config)")
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	cmd.PersistentFlags().StringVar(&profileCfg.CPUPath, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileCfg.HeapPath, "profile-mem", "", "Write memory profile to file on exit")
	cmd.PersistentFlags().StringVar(&profileCfg.TracePath, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newStatusCmd())

	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newUpdateCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newDuplicatesCmd())
	cmd.AddCommand(newCheckCmd())

	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfilingAndLogging starts profiling if requested and enables file
// logging when --debug is set. The serve command configures its own logging.
func startProfilingAndLogging(cmd *cobra.Command, _ []string) error {
	if profileCfg.Enabled() {
		session, err := profiling.Start(profileCfg)
		if err != nil {
			return err
		}
		profiler = session
	}

	if !debugMode || cmd.Name() == "serve" {
		return nil
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = "debug"
	logCfg.WriteToStderr = false
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Debug("debug_logging_enabled",
		slog.String("command", cmd.CommandPath()),
		slog.String("log_file", logging.DefaultLogPath()))
	return nil
}

func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var err error
	if profiler != nil {
		err = profiler.Stop()
		profiler = nil
	}

	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig merges defaults, the user config, --config and the environment.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}
