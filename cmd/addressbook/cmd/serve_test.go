package cmd

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/addressbook/internal/config"
	"github.com/Aman-CERP/addressbook/internal/daemon"
)

func TestServeCmd_Flags(t *testing.T) {
	cmd := newServeCmd()

	transport := cmd.Flags().Lookup("transport")
	require.NotNil(t, transport)
	assert.Equal(t, "t", transport.Shorthand)

	foreground := cmd.Flags().Lookup("foreground")
	require.NotNil(t, foreground)
	assert.Equal(t, "f", foreground.Shorthand)

	assert.NotNil(t, cmd.Flags().Lookup("with-socket"))
}

func TestServeCmd_UnknownTransport(t *testing.T) {
	isolate(t)

	_, err := run(t, "serve", "--transport", "http")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
}

func TestDaemonConfig_FromUserConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
		check  func(*testing.T, daemon.Config)
	}{
		{
			name:   "defaults keep home paths",
			modify: func(*config.Config) {},
			check: func(t *testing.T, d daemon.Config) {
				def := daemon.DefaultConfig()
				assert.Equal(t, def.SocketPath, d.SocketPath)
				assert.Equal(t, def.PIDPath, d.PIDPath)
				assert.Equal(t, 30*time.Second, d.Timeout)
			},
		},
		{
			name: "overrides apply",
			modify: func(c *config.Config) {
				c.Server.SocketPath = "/tmp/x.sock"
				c.Server.PIDPath = "/tmp/x.pid"
				c.Server.Timeout = time.Second
			},
			check: func(t *testing.T, d daemon.Config) {
				assert.Equal(t, "/tmp/x.sock", d.SocketPath)
				assert.Equal(t, "/tmp/x.pid", d.PIDPath)
				assert.Equal(t, time.Second, d.Timeout)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewConfig()
			tt.modify(cfg)
			tt.check(t, daemonConfig(cfg))
		})
	}
}

func TestLoggingConfig_DebugFlagWins(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Logging.FilePath = "/tmp/ab.log"

	debugMode = true
	t.Cleanup(func() { debugMode = false })

	logCfg := loggingConfig(cfg)
	assert.Equal(t, "debug", logCfg.Level)
	assert.Equal(t, "/tmp/ab.log", logCfg.FilePath)
	assert.Equal(t, 10, logCfg.MaxSizeMB)
}

func TestStatusCmd(t *testing.T) {
	t.Run("not running", func(t *testing.T) {
		cfgPath, _ := writeTestConfig(t)

		out, err := run(t, "--config", cfgPath, "status")

		require.NoError(t, err)
		var status daemon.StatusResult
		require.NoError(t, json.Unmarshal([]byte(out), &status))
		assert.False(t, status.Running)
	})

	t.Run("running", func(t *testing.T) {
		cfgPath := startTestDaemon(t)
		_, err := run(t, "--config", cfgPath, "create", "--name", "Ann Lee")
		require.NoError(t, err)

		out, err := run(t, "--config", cfgPath, "status")

		require.NoError(t, err)
		var status daemon.StatusResult
		require.NoError(t, json.Unmarshal([]byte(out), &status))
		assert.True(t, status.Running)
		assert.Equal(t, 1, status.Contacts)
		assert.Equal(t, 2, status.Tokens)
		require.NotNil(t, status.Search)
		assert.Zero(t, status.Search.TotalSearches)
	})
}

func TestStopCmd_NotRunning(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)

	out, err := run(t, "--config", cfgPath, "stop")

	require.NoError(t, err)
	assert.Contains(t, out, "Daemon is not running")
}
