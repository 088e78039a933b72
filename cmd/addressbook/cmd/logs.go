package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/addressbook/internal/logging"
	"github.com/Aman-CERP/addressbook/internal/output"
)

func newLogsCmd() *cobra.Command {
	var (
		follow  bool
		lines   int
		level   string
		filter  string
		noColor bool
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View server logs",
		Long: `View and tail the daemon log file.

By default, shows the last 50 lines. Use -f to follow new entries.

Examples:
  addressbook logs                  # Last 50 lines
  addressbook logs -n 200           # Last 200 lines
  addressbook logs -f               # Follow in real time
  addressbook logs --level warn     # Warnings and errors only
  addressbook logs --filter smith   # Lines matching a pattern`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := logFile
			if path == "" {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				path = loggingConfig(cfg).FilePath
			}

			var pattern *regexp.Regexp
			if filter != "" {
				var err error
				if pattern, err = regexp.Compile(filter); err != nil {
					return fmt.Errorf("invalid filter pattern: %w", err)
				}
			}

			w := cmd.OutOrStdout()
			viewer := logging.NewViewer(logging.ViewerConfig{
				Level:   level,
				Pattern: pattern,
				NoColor: noColor || output.DetectNoColor() || !output.IsTTY(w),
			}, w)

			if follow {
				return runFollow(cmd.Context(), cmd, viewer, path)
			}

			entries, err := viewer.Tail(path, lines)
			if err != nil {
				return err
			}
			viewer.Print(entries)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output (like tail -f)")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().StringVar(&level, "level", "", "Minimum log level (debug|info|warn|error)")
	cmd.Flags().StringVar(&filter, "filter", "", "Filter by pattern (regex)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&logFile, "file", "", "Path to log file")

	return cmd
}

func runFollow(ctx context.Context, cmd *cobra.Command, viewer *logging.Viewer, path string) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errOut := cmd.ErrOrStderr()
	_, _ = fmt.Fprintf(errOut, "Following %s (Ctrl+C to stop)\n", path)

	entries := make(chan logging.LogEntry, 100)
	errCh := make(chan error, 1)
	go func() { errCh <- viewer.Follow(ctx, path, entries) }()

	for {
		select {
		case entry := <-entries:
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), viewer.FormatEntry(entry))
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return <-errCh
		}
	}
}
