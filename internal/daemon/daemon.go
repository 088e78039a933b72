package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Aman-CERP/addressbook/internal/directory"
	bookerrors "github.com/Aman-CERP/addressbook/internal/errors"
	"github.com/Aman-CERP/addressbook/internal/telemetry"
)

// Daemon owns the directory engine and serves it on the configured socket.
type Daemon struct {
	cfg     Config
	engine  *directory.Engine
	metrics *telemetry.Metrics
	logger  *slog.Logger
	server  *Server
	lock    *InstanceLock
	pidFile *PIDFile
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithEngine serves an existing engine instead of a fresh one.
func WithEngine(e *directory.Engine) Option {
	return func(d *Daemon) {
		d.engine = e
	}
}

// WithMetrics records searches into m, which may be shared with other
// transports serving the same engine.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(d *Daemon) {
		d.metrics = m
	}
}

// WithLogger sets the daemon logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Daemon) {
		d.logger = logger
	}
}

// NewDaemon validates cfg and prepares a daemon. Nothing is locked or bound
// until Start.
func NewDaemon(cfg Config, opts ...Option) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, bookerrors.ConfigError("invalid daemon configuration", err)
	}

	d := &Daemon{
		cfg:     cfg,
		lock:    NewInstanceLock(cfg.LockPath()),
		pidFile: NewPIDFile(cfg.PIDPath),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.engine == nil {
		d.engine = directory.New(directory.Options{Logger: d.logger})
	}
	if d.metrics == nil {
		d.metrics = telemetry.New()
	}
	d.server = NewServer(cfg, d.engine, d.logger)
	d.server.SetMetrics(d.metrics)
	return d, nil
}

// Engine returns the served engine.
func (d *Daemon) Engine() *directory.Engine {
	return d.engine
}

// Metrics returns the search telemetry collector.
func (d *Daemon) Metrics() *telemetry.Metrics {
	return d.metrics
}

// Ready is closed once the socket accepts connections.
func (d *Daemon) Ready() <-chan struct{} {
	return d.server.Ready()
}

// Start takes the instance lock, records the PID, and serves until ctx is
// cancelled. A second daemon on the same paths fails with
// ERR_203_ALREADY_RUNNING.
func (d *Daemon) Start(ctx context.Context) error {
	if err := d.cfg.EnsureDir(); err != nil {
		return bookerrors.New(bookerrors.ErrCodeFilePermission, "failed to prepare daemon directory", err)
	}

	if err := d.lock.Acquire(); err != nil {
		return err
	}
	defer func() { _ = d.lock.Release() }()

	// The lock proves any recorded PID is stale.
	if pid, err := d.pidFile.Read(); err == nil {
		d.logger.Info("stale_pid_file_replaced", slog.Int("pid", pid))
	}
	if err := d.pidFile.Write(); err != nil {
		return bookerrors.New(bookerrors.ErrCodeFilePermission, "failed to write PID file", err)
	}
	defer func() { _ = d.pidFile.Remove() }()

	start := time.Now()
	d.logger.Info("daemon_started",
		slog.String("socket", d.cfg.SocketPath),
		slog.String("pid_file", d.cfg.PIDPath))

	err := d.server.ListenAndServe(ctx)

	stats := d.engine.Stats()
	d.logger.Info("daemon_stopped",
		slog.Duration("uptime", time.Since(start)),
		slog.Int("contacts", stats.Contacts))

	if err != nil && err != ctx.Err() {
		return fmt.Errorf("daemon server failed: %w", err)
	}
	return err
}
