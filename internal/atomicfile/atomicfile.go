// Package atomicfile writes graph pages, config and state without torn writes.
package atomicfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrUnchanged is returned by Update's edit func to skip the write.
var ErrUnchanged = errors.New("content unchanged")

// WriteFile writes data to path atomically (best-effort cross-platform).
//
// It writes to a temporary file in the same directory and renames it into place.
//
// perm is used for the temp file. If perm is 0, WriteFile will try to preserve the
// existing file's mode (if it exists) and otherwise falls back to 0644.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	if perm == 0 {
		if st, err := os.Stat(path); err == nil {
			perm = st.Mode()
		} else {
			perm = 0o644
		}
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)

	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpPath := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	_ = tmp.Chmod(perm)

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// On Windows, renaming over an existing file fails. Remove first (not atomic).
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(path)
		if err2 := os.Rename(tmpPath, path); err2 != nil {
			return fmt.Errorf("rename temp file: %w", err)
		}
	}

	committed = true
	return nil
}

// Update reads path, passes its content to edit and atomically writes the
// result back with the original mode. When edit returns ErrUnchanged, or the
// same bytes, nothing is written and Update reports false.
func Update(path string, edit func(old []byte) ([]byte, error)) (bool, error) {
	old, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	updated, err := edit(old)
	if errors.Is(err, ErrUnchanged) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if bytes.Equal(old, updated) {
		return false, nil
	}

	if err := WriteFile(path, updated, 0); err != nil {
		return false, err
	}
	return true, nil
}
