package io

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is the name of the lock file created inside a locked directory.
const LockFileName = ".lock"

// FileLock is an exclusive, non-blocking lock on a directory shared between processes.
// Acquiring it fails immediately if another process holds it.
type FileLock struct {
	lockFile *flock.Flock
	path     string
}

// NewFileLock creates a lock for dir. The directory is created on Lock if it does not exist.
func NewFileLock(dir string) *FileLock {
	lockPath := filepath.Join(dir, LockFileName)

	return &FileLock{
		lockFile: flock.New(lockPath),
		path:     lockPath,
	}
}

// Lock acquires the lock without waiting.
// Expected errors:
//   - ErrLocked if another holder already owns the lock
func (fl *FileLock) Lock() error {
	dir := filepath.Dir(fl.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory for lock file %s: %w", fl.path, err)
	}

	locked, err := fl.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire file lock at %s: %w", fl.path, err)
	}
	if !locked {
		return fmt.Errorf("cannot acquire exclusive lock on %s: %w", fl.path, ErrLocked)
	}
	return nil
}

// Unlock releases the file lock.
func (fl *FileLock) Unlock() error {
	if err := fl.lockFile.Unlock(); err != nil {
		return fmt.Errorf("failed to release file lock at %s: %w", fl.path, err)
	}
	return nil
}

// Path returns the path to the lock file.
func (fl *FileLock) Path() string {
	return fl.path
}
