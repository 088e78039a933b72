// Package daemon runs the contact directory as a background service on a unix
// socket. CLI commands talk to it with newline-delimited JSON-RPC 2.0, one
// request per connection, so every command sees the same in-memory directory.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds configuration for the daemon service.
type Config struct {
	// SocketPath is the Unix domain socket path for IPC.
	// Default: ~/.addressbook/daemon.sock
	SocketPath string

	// PIDPath is the file path for storing the daemon's process ID.
	// Default: ~/.addressbook/daemon.pid
	PIDPath string

	// Timeout bounds a single request, on both the client and the server side.
	// Default: 30s
	Timeout time.Duration

	// ShutdownGracePeriod is how long in-flight requests get after shutdown.
	// Default: 5s
	ShutdownGracePeriod time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	dir := filepath.Join(home, ".addressbook")

	return Config{
		SocketPath:          filepath.Join(dir, "daemon.sock"),
		PIDPath:             filepath.Join(dir, "daemon.pid"),
		Timeout:             30 * time.Second,
		ShutdownGracePeriod: 5 * time.Second,
	}
}

// LockPath is the single-instance lock file, kept beside the PID file.
func (c Config) LockPath() string {
	return c.PIDPath + ".lock"
}

// Validate checks that the configuration is valid.
func (c Config) Validate() error {
	if c.SocketPath == "" {
		return fmt.Errorf("socket path cannot be empty")
	}
	if c.PIDPath == "" {
		return fmt.Errorf("PID path cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.ShutdownGracePeriod <= 0 {
		return fmt.Errorf("shutdown grace period must be positive")
	}
	return nil
}

// EnsureDir creates the directories for the socket and PID files.
func (c Config) EnsureDir() error {
	for _, dir := range []string{filepath.Dir(c.SocketPath), filepath.Dir(c.PIDPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}
