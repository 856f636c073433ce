package draft

import (
	"testing"

	"draftsmith/internal/workspace"
)

func TestVersionedName(t *testing.T) {
	cases := []struct {
		base    string
		attempt int
		want    string
	}{
		{"post", 0, "post.md"},
		{"post", 1, "post_1.md"},
		{"post", 42, "post_42.md"},
		{"go-125-릴리즈", 0, "go-125-릴리즈.md"},
	}
	for _, c := range cases {
		if got := VersionedName(c.base, c.attempt); got != c.want {
			t.Errorf("VersionedName(%q, %d) = %q, want %q", c.base, c.attempt, got, c.want)
		}
	}
}

func TestLatestVersion(t *testing.T) {
	dir := t.TempDir()
	ws, err := workspace.NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}

	// Missing directory yields no match, no error.
	name, err := LatestVersion(ws, "ghost", "post")
	if err != nil {
		t.Fatalf("LatestVersion(missing dir): %v", err)
	}
	if name != "" {
		t.Errorf("name = %q, want empty", name)
	}

	for _, f := range []string{"post.md", "post_1.md", "post_3.md", "post_x.md", "other.md", "post_2.txt"} {
		if err := ws.Write("d/"+f, []byte("x")); err != nil {
			t.Fatalf("Write %s: %v", f, err)
		}
	}

	name, err = LatestVersion(ws, "d", "post")
	if err != nil {
		t.Fatalf("LatestVersion: %v", err)
	}
	if name != "post_3.md" {
		t.Errorf("name = %q, want post_3.md", name)
	}

	// Unsuffixed name alone counts as version 0.
	name, err = LatestVersion(ws, "d", "other")
	if err != nil {
		t.Fatalf("LatestVersion: %v", err)
	}
	if name != "other.md" {
		t.Errorf("name = %q, want other.md", name)
	}

	// Base names containing regexp metacharacters must be quoted.
	if err := ws.Write("d/a+b.md", []byte("x")); err != nil {
		t.Fatal(err)
	}
	name, err = LatestVersion(ws, "d", "a+b")
	if err != nil {
		t.Fatalf("LatestVersion: %v", err)
	}
	if name != "a+b.md" {
		t.Errorf("name = %q, want a+b.md", name)
	}
}
