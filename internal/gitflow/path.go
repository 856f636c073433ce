package gitflow

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"draftsmith/internal/apperr"
)

// repoTraversalRe matches ".." as a path element, in either separator style.
var repoTraversalRe = regexp.MustCompile(`(^|[\\/])\.\.([\\/]|$)`)

// ResolveRepoPath validates an input path against the repository root and
// returns its repository-relative, forward-slash form. The repo root itself
// and anything outside it are rejected.
func ResolveRepoPath(repoRoot, input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", fmt.Errorf("%w: path is empty", apperr.ErrInvalid)
	}
	if repoTraversalRe.MatchString(trimmed) {
		return "", fmt.Errorf("%w: path traversal in %q", apperr.ErrInvalid, input)
	}

	abs := filepath.Clean(trimmed)
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(repoRoot, abs)
	}
	rel, err := filepath.Rel(repoRoot, abs)
	if err != nil || rel == "." || rel == ".." ||
		strings.HasPrefix(rel, ".."+string(os.PathSeparator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: path %q is outside the repository", apperr.ErrInvalid, input)
	}
	return filepath.ToSlash(rel), nil
}
