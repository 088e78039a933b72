package cmd

import (
	"fmt"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/addressbook/internal/daemon"
	"github.com/Aman-CERP/addressbook/internal/output"
	"github.com/Aman-CERP/addressbook/internal/profiling"
)

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		Long: `Stop the running daemon. Sends SIGTERM for a graceful shutdown and
falls back to SIGKILL after five seconds. The directory is discarded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStop(cmd)
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Long:  `Show whether the daemon is running, its process ID, uptime and directory size.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd)
		},
	}
}

func runStop(cmd *cobra.Command) error {
	out := output.New(cmd.OutOrStdout())
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pidFile := daemon.NewPIDFile(daemonConfig(cfg).PIDPath)
	if !pidFile.IsRunning() {
		out.Status("", "Daemon is not running")
		return nil
	}

	pid, err := pidFile.Read()
	if err != nil {
		return fmt.Errorf("failed to read PID: %w", err)
	}

	if err := pidFile.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}

	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		if !pidFile.IsRunning() {
			out.Success(fmt.Sprintf("Daemon stopped (was pid: %d)", pid))
			return nil
		}
	}

	out.Status("", "Daemon not responding, sending SIGKILL...")
	if err := pidFile.Signal(syscall.SIGKILL); err != nil {
		return fmt.Errorf("failed to kill daemon: %w", err)
	}

	out.Success("Daemon killed")
	return nil
}

func runStatus(cmd *cobra.Command) error {
	out := output.New(cmd.OutOrStdout())
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dcfg := daemonConfig(cfg)
	client := daemon.NewClient(dcfg)

	if !client.IsRunning() {
		if wantJSON(cmd.OutOrStdout()) {
			return out.JSON(daemon.StatusResult{Running: false})
		}
		out.Status("", "Daemon is not running")
		out.Status("", "Run 'addressbook serve' to start it")
		return nil
	}

	status, err := client.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	if wantJSON(cmd.OutOrStdout()) {
		return out.JSON(status)
	}

	out.Status("", "Daemon is running")
	out.Status("", fmt.Sprintf("  PID:      %d", status.PID))
	out.Status("", fmt.Sprintf("  Uptime:   %s", status.Uptime))
	out.Status("", fmt.Sprintf("  Contacts: %d", status.Contacts))
	out.Status("", fmt.Sprintf("  Tokens:   %d (%d postings)", status.Tokens, status.Postings))
	out.Status("", fmt.Sprintf("  Heap:     %s", profiling.FormatBytes(status.HeapBytes)))
	out.Status("", fmt.Sprintf("  Socket:   %s", dcfg.SocketPath))

	if search := status.Search; search != nil && search.TotalSearches > 0 {
		out.Newline()
		out.Header("Searches")
		out.Status("", fmt.Sprintf("  Total:    %d (%.1f%% without results)", search.TotalSearches, search.ZeroResultPercentage()))
		out.Status("", fmt.Sprintf("  Repeats:  %d", search.RepeatCount))
		for i, tc := range search.TopTokens {
			if i == 5 {
				break
			}
			out.Status("", fmt.Sprintf("  %-10s %d", tc.Token, tc.Count))
		}
	}
	return nil
}
