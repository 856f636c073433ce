// Package testutil provides shared test helpers for setting up workspaces
// and git repository layouts.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"draftsmith/internal/workspace"
)

// TestWorkspace creates a temporary workspace directory with a ready FS.
func TestWorkspace(t *testing.T) (string, *workspace.FS) {
	t.Helper()
	dir := t.TempDir()
	ws, err := workspace.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, ws
}

// TestRepoRoot creates a temporary directory that looks like a git work
// tree, for engines driven by a fake runner.
func TestRepoRoot(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}
