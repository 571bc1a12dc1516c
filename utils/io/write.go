package io

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrLocked is returned when a FileLock is held by someone else.
var ErrLocked = errors.New("resource is locked by another process")

// WriteFileAtomic writes data to a temporary file next to path and renames it into place,
// so readers observe either the old or the new content.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("could not create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("could not create temporary file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op once the rename succeeded
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("could not write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("could not sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("could not set permissions on %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("could not move %s to %s: %w", tmpName, path, err)
	}
	return nil
}

// AppendLine appends line followed by a newline to the file at path, creating it if needed.
func AppendLine(path string, line []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, perm)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", path, err)
	}

	_, err = f.Write(append(append(make([]byte, 0, len(line)+1), line...), '\n'))
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("could not append to %s: %w", path, err)
	}
	return f.Close()
}
