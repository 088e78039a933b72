package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/addressbook/internal/directory"
	"github.com/Aman-CERP/addressbook/internal/logging"
)

// testConfig uses short /tmp paths; unix socket paths are length-limited.
func testConfig(t *testing.T) Config {
	t.Helper()
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	socketPath := filepath.Join("/tmp", fmt.Sprintf("ab-test-%s.sock", suffix))
	pidPath := filepath.Join("/tmp", fmt.Sprintf("ab-test-%s.pid", suffix))

	cfg := Config{
		SocketPath:          socketPath,
		PIDPath:             pidPath,
		Timeout:             5 * time.Second,
		ShutdownGracePeriod: 2 * time.Second,
	}
	t.Cleanup(func() {
		_ = os.Remove(socketPath)
		_ = os.Remove(pidPath)
		_ = os.Remove(cfg.LockPath())
	})
	return cfg
}

// startDaemon runs a daemon until the test ends and returns a client for it.
func startDaemon(t *testing.T) (*Daemon, *Client) {
	t.Helper()
	cfg := testConfig(t)

	engine := directory.New(directory.Options{Logger: logging.Discard(), LockStripes: 8})
	d, err := NewDaemon(cfg, WithEngine(engine), WithLogger(logging.Discard()))
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
		select {
		case <-errCh:
		case <-time.After(5 * time.Second):
			t.Error("daemon did not stop")
		}
	})
	return d, NewClient(cfg)
}
