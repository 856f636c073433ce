// Package workspace provides rooted filesystem access for draft files.
// Every operation takes a root-relative path and re-checks containment
// before touching the disk.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"draftsmith/internal/pathsafe"
)

// FS is a filesystem provider rooted at the workspace directory.
type FS struct {
	root string // absolute path to the workspace root
}

// NewFS creates a provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("workspace: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("workspace: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute workspace root.
func (f *FS) Root() string {
	return f.root
}

// safePath resolves a relative path against the root and rejects any
// result that escapes it.
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("workspace: absolute paths not allowed: %s", rel)
	}
	abs, err := pathsafe.EnsureWithin(f.root, filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("workspace: %w", err)
	}
	return abs, nil
}

// Abs returns the validated absolute path for rel, for use in response
// payloads. No filesystem access is performed.
func (f *FS) Abs(rel string) (string, error) {
	return f.safePath(rel)
}

// Read returns the raw bytes of a workspace file. The returned error keeps
// fs.ErrNotExist in its chain when the file is missing.
func (f *FS) Read(rel string) ([]byte, error) {
	abs, err := f.safePath(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("workspace: read %s: %w", rel, err)
	}
	return data, nil
}

// Exists reports whether a workspace file exists.
func (f *FS) Exists(rel string) (bool, error) {
	abs, err := f.safePath(rel)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("workspace: stat %s: %w", rel, err)
	}
	return true, nil
}

// MkdirAll creates a workspace directory and any missing parents.
// Idempotent.
func (f *FS) MkdirAll(rel string) error {
	abs, err := f.safePath(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("workspace: mkdir %s: %w", rel, err)
	}
	return nil
}

// ReadDirNames returns the file names (directories excluded) inside a
// workspace directory, or nil without error when the directory is missing.
func (f *FS) ReadDirNames(rel string) ([]string, error) {
	abs, err := f.safePath(rel)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("workspace: read dir %s: %w", rel, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// CreateExclusive writes content to a new file, failing if the target name
// already exists. The returned error keeps fs.ErrExist in its chain so
// callers can advance to the next versioned name instead of overwriting.
func (f *FS) CreateExclusive(rel string, content []byte) error {
	abs, err := f.safePath(rel)
	if err != nil {
		return err
	}
	fh, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("workspace: create %s: %w", rel, err)
	}
	if _, err := fh.Write(content); err != nil {
		_ = fh.Close()
		_ = os.Remove(abs)
		return fmt.Errorf("workspace: write %s: %w", rel, err)
	}
	if err := fh.Sync(); err != nil {
		_ = fh.Close()
		_ = os.Remove(abs)
		return fmt.Errorf("workspace: fsync %s: %w", rel, err)
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("workspace: close %s: %w", rel, err)
	}
	return nil
}

// Write atomically replaces a file's content: tmp file → fsync → rename.
// Used by patch-style operations that intentionally mutate existing files.
func (f *FS) Write(rel string, content []byte) error {
	abs, err := f.safePath(rel)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("workspace: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".draftsmith-tmp-*")
	if err != nil {
		return fmt.Errorf("workspace: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("workspace: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("workspace: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("workspace: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("workspace: rename: %w", err)
	}
	success = true
	return nil
}
