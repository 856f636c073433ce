// Package pathsafe guards every filesystem path derived from request input.
//
// Name normalization is applied identically wherever a filename is derived
// from a post title, so the same title always maps to the same base name
// across draft creation, patching, and image injection. Titles may be in
// Korean, so Hangul syllables survive normalization.
package pathsafe

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	traversalRe  = regexp.MustCompile(`\.\.|[\\/]`)
	spacingRe    = regexp.MustCompile(`[\s_]+`)
	disallowedRe = regexp.MustCompile(`[^a-z0-9가-힣-]`)
	hyphenRunRe  = regexp.MustCompile(`-+`)
)

// HasTraversal reports whether value contains ".." or a path separator.
// Used to reject raw title/category/date/slug fields outright, on top of
// the format validation the HTTP layer already performs.
func HasTraversal(value string) bool {
	return traversalRe.MatchString(value)
}

// NormalizeName derives a filename base: lower-cased, whitespace and
// underscore runs collapsed to single hyphens, everything outside
// [a-z0-9가-힣-] stripped, hyphen runs collapsed, edges trimmed.
// An empty result is the caller's request error. Idempotent.
func NormalizeName(value string) string {
	s := strings.ToLower(strings.TrimSpace(value))
	s = spacingRe.ReplaceAllString(s, "-")
	s = disallowedRe.ReplaceAllString(s, "")
	s = hyphenRunRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Slugify is NormalizeName except disallowed characters become hyphens
// instead of disappearing, keeping word boundaries in URL slugs.
func Slugify(value string) string {
	s := strings.ToLower(strings.TrimSpace(value))
	s = spacingRe.ReplaceAllString(s, "-")
	s = disallowedRe.ReplaceAllString(s, "-")
	s = hyphenRunRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// EnsureWithin resolves candidate to absolute form and fails unless it is
// root itself or a descendant of root. This is the final gate before every
// filesystem read or write and is re-checked per path: joining and cleaning
// can reintroduce traversal even after upstream validation passed.
func EnsureWithin(root, candidate string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("pathsafe: resolve root: %w", err)
	}
	abs, err := filepath.Abs(candidate)
	if err != nil {
		return "", fmt.Errorf("pathsafe: resolve path: %w", err)
	}
	if abs != absRoot && !strings.HasPrefix(abs, absRoot+string(os.PathSeparator)) {
		return "", fmt.Errorf("pathsafe: %s escapes %s", candidate, absRoot)
	}
	return abs, nil
}
