// Package config loads addressbook configuration from YAML files and the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	bookerrors "github.com/Aman-CERP/addressbook/internal/errors"
)

// CurrentVersion is the schema version written by `addressbook config init`.
const CurrentVersion = 1

// Transports accepted by server.transport.
const (
	TransportSocket = "socket"
	TransportStdio  = "stdio"
)

// Config represents the complete addressbook configuration.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Directory DirectoryConfig `yaml:"directory" json:"directory"`
}

// ServerConfig configures the daemon and its transports.
type ServerConfig struct {
	// Transport is "socket" (daemon on a unix socket) or "stdio" (MCP).
	Transport string `yaml:"transport" json:"transport"`
	// SocketPath overrides the daemon socket. Empty uses ~/.addressbook/daemon.sock.
	SocketPath string `yaml:"socket_path,omitempty" json:"socket_path,omitempty"`
	// PIDPath overrides the daemon PID file. Empty uses ~/.addressbook/daemon.pid.
	PIDPath string `yaml:"pid_path,omitempty" json:"pid_path,omitempty"`
	// Timeout bounds a single client request to the daemon.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// LoggingConfig configures the rotating log file.
type LoggingConfig struct {
	// FilePath overrides the log file. Empty uses ~/.addressbook/logs/server.log.
	FilePath  string `yaml:"file_path,omitempty" json:"file_path,omitempty"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// DirectoryConfig tunes the in-memory directory.
type DirectoryConfig struct {
	// LockStripes is the number of per-ID mutation locks.
	LockStripes int `yaml:"lock_stripes" json:"lock_stripes"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Server: ServerConfig{
			Transport: TransportSocket,
			Timeout:   30 * time.Second,
			LogLevel:  "info",
		},
		Logging: LoggingConfig{
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
		Directory: DirectoryConfig{
			LockStripes: 64,
		},
	}
}

// GetUserConfigPath returns the user configuration path, honoring
// XDG_CONFIG_HOME: $XDG_CONFIG_HOME/addressbook/config.yaml, otherwise
// ~/.config/addressbook/config.yaml.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "addressbook", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "addressbook", "config.yaml")
	}
	return filepath.Join(home, ".config", "addressbook", "config.yaml")
}

// UserConfigExists reports whether the user configuration file exists.
func UserConfigExists() bool {
	_, err := os.Stat(GetUserConfigPath())
	return err == nil
}

// Load builds the effective configuration. Sources apply in order of
// increasing precedence:
//  1. Hardcoded defaults
//  2. User config (see GetUserConfigPath), if present
//  3. The file at path, if path is non-empty (it must exist)
//  4. Environment variables (ADDRESSBOOK_*)
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if UserConfigExists() {
		if err := cfg.loadYAML(GetUserConfigPath()); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadYAML parses path and merges its non-zero values into c.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return bookerrors.ConfigNotFoundError(path, err)
	}
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.SocketPath != "" {
		c.Server.SocketPath = other.Server.SocketPath
	}
	if other.Server.PIDPath != "" {
		c.Server.PIDPath = other.Server.PIDPath
	}
	if other.Server.Timeout != 0 {
		c.Server.Timeout = other.Server.Timeout
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}

	if other.Logging.FilePath != "" {
		c.Logging.FilePath = other.Logging.FilePath
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}

	if other.Directory.LockStripes != 0 {
		c.Directory.LockStripes = other.Directory.LockStripes
	}
}

// applyEnvOverrides applies ADDRESSBOOK_* environment variables. Malformed
// numeric values are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ADDRESSBOOK_SOCKET"); v != "" {
		c.Server.SocketPath = v
	}
	if v := os.Getenv("ADDRESSBOOK_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("ADDRESSBOOK_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
	if v := os.Getenv("ADDRESSBOOK_LOCK_STRIPES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Directory.LockStripes = n
		}
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Server.Transport) {
	case TransportSocket, TransportStdio:
	default:
		return fmt.Errorf("server.transport must be 'socket' or 'stdio', got %s", c.Server.Transport)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	if c.Server.Timeout < 0 {
		return fmt.Errorf("server.timeout must be non-negative, got %s", c.Server.Timeout)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxFiles < 0 {
		return fmt.Errorf("logging.max_size_mb and logging.max_files must be non-negative")
	}
	if c.Directory.LockStripes <= 0 {
		return fmt.Errorf("directory.lock_stripes must be positive, got %d", c.Directory.LockStripes)
	}

	return nil
}

// WriteYAML writes the configuration to path, creating parent directories.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
