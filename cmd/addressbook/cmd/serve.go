package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/addressbook/internal/config"
	"github.com/Aman-CERP/addressbook/internal/daemon"
	"github.com/Aman-CERP/addressbook/internal/directory"
	bookerrors "github.com/Aman-CERP/addressbook/internal/errors"
	"github.com/Aman-CERP/addressbook/internal/logging"
	"github.com/Aman-CERP/addressbook/internal/mcp"
	"github.com/Aman-CERP/addressbook/internal/output"
	"github.com/Aman-CERP/addressbook/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	var (
		transport  string
		foreground bool
		withSocket bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the contact directory",
		Long: `Serve the in-memory contact directory.

Transports:
  socket  Run as a daemon on a unix socket for the CLI commands (default).
          Starts in the background unless --foreground is given.
  stdio   Serve MCP tools over stdin/stdout for AI assistants. Nothing but
          protocol messages is written to stdout; logs go to the log file.

The directory lives only as long as the serving process.`,
		Example: `  addressbook serve                   # daemon in background
  addressbook serve -f                # daemon in foreground
  addressbook serve --transport stdio # MCP server`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if transport == "" {
				transport = cfg.Server.Transport
			}

			switch transport {
			case config.TransportStdio:
				return runServeStdio(cmd.Context(), cfg, withSocket)
			case config.TransportSocket:
				if foreground {
					return runServeForeground(cmd, cfg)
				}
				return runServeBackground(cmd, cfg)
			default:
				return fmt.Errorf("unknown transport: %s (supported: socket, stdio)", transport)
			}
		},
	}

	cmd.Flags().StringVarP(&transport, "transport", "t", "", "Transport: socket or stdio (default from config)")
	cmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Run the socket daemon in the foreground")
	cmd.Flags().BoolVar(&withSocket, "with-socket", false, "With stdio, also serve the same directory on the daemon socket")

	return cmd
}

// loggingConfig maps the user configuration onto the log file settings.
func loggingConfig(cfg *config.Config) logging.Config {
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Server.LogLevel
	if debugMode {
		logCfg.Level = "debug"
	}
	if cfg.Logging.FilePath != "" {
		logCfg.FilePath = cfg.Logging.FilePath
	}
	logCfg.MaxSizeMB = cfg.Logging.MaxSizeMB
	logCfg.MaxFiles = cfg.Logging.MaxFiles
	return logCfg
}

func newEngine(cfg *config.Config, logger *slog.Logger) *directory.Engine {
	return directory.New(directory.Options{
		LockStripes: cfg.Directory.LockStripes,
		Logger:      logger,
	})
}

func runServeForeground(cmd *cobra.Command, cfg *config.Config) error {
	out := output.New(cmd.OutOrStdout())
	dcfg := daemonConfig(cfg)

	logCfg := loggingConfig(cfg)
	logCfg.WriteToStderr = true
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer cleanup()
	slog.SetDefault(logger)

	d, err := daemon.NewDaemon(dcfg,
		daemon.WithEngine(newEngine(cfg, logger)),
		daemon.WithLogger(logger))
	if err != nil {
		return err
	}

	out.Status("", "Starting daemon in foreground...")
	out.Status("", fmt.Sprintf("Socket: %s", dcfg.SocketPath))
	out.Status("", fmt.Sprintf("Logs: %s", logCfg.FilePath))
	out.Status("", "Press Ctrl+C to stop")
	out.Newline()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.Start(gctx)
	})
	g.Go(func() error {
		select {
		case <-d.Ready():
			out.Success("Daemon ready")
		case <-gctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runServeBackground(cmd *cobra.Command, cfg *config.Config) error {
	out := output.New(cmd.OutOrStdout())
	client := daemon.NewClient(daemonConfig(cfg))
	if client.IsRunning() {
		out.Status("", "Daemon is already running")
		return nil
	}

	out.Status("", "Starting daemon in background...")

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	args := []string{"serve", "--transport", config.TransportSocket, "--foreground"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	if debugMode {
		args = append(args, "--debug")
	}

	bgCmd := exec.Command(execPath, args...)
	bgCmd.Stdout = nil
	bgCmd.Stderr = nil
	bgCmd.Stdin = nil
	bgCmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := bgCmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	// Reap the child and stop waiting if it dies before the socket comes up.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	exited := make(chan error, 1)
	go func() {
		exited <- bgCmd.Wait()
		cancel()
	}()

	if err := client.WaitReady(ctx, bookerrors.DefaultRetryConfig()); err != nil {
		select {
		case werr := <-exited:
			if werr != nil {
				return fmt.Errorf("daemon process exited unexpectedly: %w", werr)
			}
			return fmt.Errorf("daemon process exited unexpectedly with code 0")
		default:
		}
		return fmt.Errorf("daemon failed to start: %w", err)
	}

	out.Success(fmt.Sprintf("Daemon started (pid: %d)", bgCmd.Process.Pid))
	return nil
}

// runServeStdio serves MCP on stdin/stdout until the client disconnects.
// With withSocket the daemon runs in the same process on the same engine.
func runServeStdio(ctx context.Context, cfg *config.Config, withSocket bool) error {
	cleanup, err := logging.SetupStdioMode(loggingConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer cleanup()
	logger := slog.Default()

	engine := newEngine(cfg, logger)
	metrics := telemetry.New()
	srv, err := mcp.NewServer(engine, logger)
	if err != nil {
		return err
	}
	srv.SetMetrics(metrics)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Stdin closing ends the session and takes the socket down with it.
		defer cancel()
		return srv.Serve(gctx, config.TransportStdio)
	})
	if withSocket {
		d, err := daemon.NewDaemon(daemonConfig(cfg),
			daemon.WithEngine(engine),
			daemon.WithMetrics(metrics),
			daemon.WithLogger(logger))
		if err != nil {
			return err
		}
		g.Go(func() error {
			return d.Start(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
