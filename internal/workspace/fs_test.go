package workspace

import (
	"errors"
	"io/fs"
	"testing"
)

func tempWorkspace(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	w, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return w
}

func TestWriteAndRead(t *testing.T) {
	w := tempWorkspace(t)
	content := []byte("# Hello\nWorld\n")
	if err := w.Write("post.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := w.Read("post.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	w := tempWorkspace(t)
	if err := w.Write("2025-12-24/Backend/post.md", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := w.Read("2025-12-24/Backend/post.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestCreateExclusive(t *testing.T) {
	w := tempWorkspace(t)
	if err := w.CreateExclusive("once.md", []byte("first")); err != nil {
		t.Fatalf("CreateExclusive: %v", err)
	}
	err := w.CreateExclusive("once.md", []byte("second"))
	if err == nil {
		t.Fatal("second exclusive create should fail")
	}
	if !errors.Is(err, fs.ErrExist) {
		t.Errorf("error should wrap fs.ErrExist, got %v", err)
	}
	// First writer's content must be preserved.
	got, _ := w.Read("once.md")
	if string(got) != "first" {
		t.Errorf("content = %q, want %q", got, "first")
	}
}

func TestCreateExclusiveNeedsDir(t *testing.T) {
	w := tempWorkspace(t)
	if err := w.CreateExclusive("missing-dir/post.md", []byte("x")); err == nil {
		t.Error("create without parent dir should fail")
	}
	if err := w.MkdirAll("missing-dir"); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := w.CreateExclusive("missing-dir/post.md", []byte("x")); err != nil {
		t.Errorf("create after MkdirAll: %v", err)
	}
}

func TestReadMissingWrapsNotExist(t *testing.T) {
	w := tempWorkspace(t)
	_, err := w.Read("nope.md")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error should wrap fs.ErrNotExist, got %v", err)
	}
}

func TestExists(t *testing.T) {
	w := tempWorkspace(t)
	ok, err := w.Exists("a.md")
	if err != nil || ok {
		t.Errorf("Exists(missing) = %v, %v", ok, err)
	}
	_ = w.Write("a.md", []byte("a"))
	ok, err = w.Exists("a.md")
	if err != nil || !ok {
		t.Errorf("Exists(present) = %v, %v", ok, err)
	}
}

func TestReadDirNames(t *testing.T) {
	w := tempWorkspace(t)
	names, err := w.ReadDirNames("ghost")
	if err != nil {
		t.Fatalf("ReadDirNames(missing): %v", err)
	}
	if names != nil {
		t.Errorf("missing dir should yield nil, got %v", names)
	}

	_ = w.Write("d/a.md", []byte("a"))
	_ = w.Write("d/b.md", []byte("b"))
	_ = w.MkdirAll("d/sub")
	names, err = w.ReadDirNames("d")
	if err != nil {
		t.Fatalf("ReadDirNames: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("names = %v, want two files", names)
	}
}

func TestTraversalBlocked(t *testing.T) {
	w := tempWorkspace(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := w.Read(p); err == nil {
			t.Errorf("expected error for read %q", p)
		}
		if err := w.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
		if err := w.CreateExclusive(p, []byte("x")); err == nil {
			t.Errorf("expected error for exclusive create of %q", p)
		}
	}
}
