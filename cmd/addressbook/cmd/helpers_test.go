package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/addressbook/internal/config"
	"github.com/Aman-CERP/addressbook/internal/daemon"
	"github.com/Aman-CERP/addressbook/internal/directory"
	"github.com/Aman-CERP/addressbook/internal/logging"
)

// isolate points the user config at an empty temp dir and clears env overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, key := range []string{"ADDRESSBOOK_SOCKET", "ADDRESSBOOK_LOG_LEVEL", "ADDRESSBOOK_TRANSPORT", "ADDRESSBOOK_LOCK_STRIPES"} {
		t.Setenv(key, "")
	}
	return dir
}

// writeTestConfig writes a config file with short /tmp socket and PID paths,
// since unix socket paths are length-limited.
func writeTestConfig(t *testing.T) (string, *config.Config) {
	t.Helper()
	dir := isolate(t)

	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	cfg := config.NewConfig()
	cfg.Server.SocketPath = filepath.Join("/tmp", fmt.Sprintf("ab-cmd-%s.sock", suffix))
	cfg.Server.PIDPath = filepath.Join("/tmp", fmt.Sprintf("ab-cmd-%s.pid", suffix))
	cfg.Server.Timeout = 5 * time.Second
	t.Cleanup(func() {
		_ = os.Remove(cfg.Server.SocketPath)
		_ = os.Remove(cfg.Server.PIDPath)
		_ = os.Remove(cfg.Server.PIDPath + ".lock")
	})

	path := filepath.Join(dir, "test-config.yaml")
	require.NoError(t, cfg.WriteYAML(path))
	return path, cfg
}

// startTestDaemon serves an empty directory in-process for the rest of the
// test and returns the config file that points at it.
func startTestDaemon(t *testing.T) string {
	t.Helper()
	path, cfg := writeTestConfig(t)

	engine := directory.New(directory.Options{Logger: logging.Discard(), LockStripes: 8})
	d, err := daemon.NewDaemon(daemonConfig(cfg), daemon.WithEngine(engine), daemon.WithLogger(logging.Discard()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- d.Start(ctx)
	}()

	select {
	case <-d.Ready():
	case err := <-errCh:
		cancel()
		t.Fatalf("daemon exited before ready: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("daemon did not become ready")
	}

	t.Cleanup(func() {
		cancel()
		<-errCh
	})
	return path
}

// run executes the root command with args and returns everything it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
