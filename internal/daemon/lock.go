package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	bookerrors "github.com/Aman-CERP/addressbook/internal/errors"
)

// InstanceLock guarantees at most one daemon per lock file across processes.
// The OS drops the lock when the holder exits, so a crashed daemon never
// leaves it stuck.
type InstanceLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewInstanceLock creates a lock backed by the file at path.
func NewInstanceLock(path string) *InstanceLock {
	return &InstanceLock{
		path:  path,
		flock: flock.New(path),
	}
}

// Acquire takes the lock without blocking. If another process holds it, the
// error carries ERR_203_ALREADY_RUNNING.
func (l *InstanceLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return bookerrors.New(bookerrors.ErrCodeFilePermission, "failed to acquire instance lock", err).
			WithDetail("path", l.path)
	}
	if !acquired {
		return bookerrors.New(bookerrors.ErrCodeAlreadyRunning, "another addressbook daemon is already running", nil).
			WithDetail("lock", l.path).
			WithSuggestion("stop it with 'addressbook stop' or check 'addressbook status'")
	}

	l.locked = true
	return nil
}

// Release drops the lock. Calling it on an unlocked InstanceLock is a no-op.
func (l *InstanceLock) Release() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *InstanceLock) Path() string {
	return l.path
}
