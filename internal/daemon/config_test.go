package daemon

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, strings.HasSuffix(cfg.SocketPath, filepath.Join(".addressbook", "daemon.sock")))
	assert.True(t, strings.HasSuffix(cfg.PIDPath, filepath.Join(".addressbook", "daemon.pid")))
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, cfg.PIDPath+".lock", cfg.LockPath())
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{SocketPath: "/tmp/a.sock", PIDPath: "/tmp/a.pid", Timeout: time.Second, ShutdownGracePeriod: time.Second}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"empty socket", func(c *Config) { c.SocketPath = "" }, "socket path"},
		{"empty pid", func(c *Config) { c.PIDPath = "" }, "PID path"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout"},
		{"zero grace", func(c *Config) { c.ShutdownGracePeriod = 0 }, "grace period"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfig_EnsureDir(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		SocketPath: filepath.Join(dir, "run", "d.sock"),
		PIDPath:    filepath.Join(dir, "state", "d.pid"),
	}

	require.NoError(t, cfg.EnsureDir())

	assert.DirExists(t, filepath.Join(dir, "run"))
	assert.DirExists(t, filepath.Join(dir, "state"))
}
