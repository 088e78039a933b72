package cmd

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/addressbook/configs"
	"github.com/Aman-CERP/addressbook/internal/config"
)

func TestConfigInit_CreatesUserConfig(t *testing.T) {
	// Given: no user config
	isolate(t)
	require.False(t, config.UserConfigExists())

	// When: running config init
	out, err := run(t, "config", "init")

	// Then: the defaults are written to the user config path
	require.NoError(t, err)
	assert.Contains(t, out, "Created user configuration")
	assert.True(t, config.UserConfigExists())
	data, err := os.ReadFile(config.GetUserConfigPath())
	require.NoError(t, err)
	assert.Equal(t, configs.UserConfigTemplate, string(data))

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.NewConfig(), cfg)
}

func TestConfigInit_ExistingWithoutForce(t *testing.T) {
	// Given: a customized user config
	isolate(t)
	path := config.GetUserConfigPath()
	custom := config.NewConfig()
	custom.Directory.LockStripes = 7
	require.NoError(t, custom.WriteYAML(path))

	// When: running config init without --force
	out, err := run(t, "config", "init")

	// Then: the file is left alone
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Directory.LockStripes)
}

func TestConfigInit_ForceKeepsBackup(t *testing.T) {
	// Given: a customized user config
	isolate(t)
	path := config.GetUserConfigPath()
	custom := config.NewConfig()
	custom.Directory.LockStripes = 7
	require.NoError(t, custom.WriteYAML(path))
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	// When: running config init --force
	out, err := run(t, "config", "init", "--force")

	// Then: defaults are written and the old file survives as a backup
	require.NoError(t, err)
	assert.Contains(t, out, "Backup:")

	backups, err := config.ListBackups(path)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	saved, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, original, saved)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Directory.LockStripes)
}

func TestConfigShow(t *testing.T) {
	// Given: an explicit config file and an env override
	cfgPath, want := writeTestConfig(t)
	t.Setenv("ADDRESSBOOK_LOG_LEVEL", "debug")

	t.Run("yaml", func(t *testing.T) {
		out, err := run(t, "--config", cfgPath, "config", "show")

		require.NoError(t, err)
		assert.Contains(t, out, "Effective configuration")
		assert.Contains(t, out, "socket_path: "+want.Server.SocketPath)
		assert.Contains(t, out, "log_level: debug")
	})

	t.Run("json", func(t *testing.T) {
		out, err := run(t, "--config", cfgPath, "--json", "config", "show")

		require.NoError(t, err)
		var got config.Config
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, want.Server.SocketPath, got.Server.SocketPath)
		assert.Equal(t, "debug", got.Server.LogLevel)
	})
}

func TestConfigShow_InvalidConfigFails(t *testing.T) {
	dir := isolate(t)
	path := dir + "/bad.yaml"
	require.NoError(t, os.WriteFile(path, []byte("directory:\n  lock_stripes: -1\n"), 0o644))

	_, err := run(t, "--config", path, "config", "show")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "lock_stripes")
}

func TestConfigPath(t *testing.T) {
	isolate(t)

	out, err := run(t, "config", "path")

	require.NoError(t, err)
	assert.Equal(t, config.GetUserConfigPath(), strings.TrimSpace(out))
}
