package draft

import (
	"fmt"
	"regexp"
	"strconv"

	"draftsmith/internal/workspace"
)

// VersionedName builds the file name for a creation attempt: attempt 0 is
// the bare base name, attempt N carries an _N suffix.
func VersionedName(base string, attempt int) string {
	if attempt == 0 {
		return base + ".md"
	}
	return fmt.Sprintf("%s_%d.md", base, attempt)
}

// LatestVersion scans a workspace directory for files matching
// {base}(_{digits})?.md and returns the name with the highest numeric
// suffix, counting a missing suffix as 0. Returns "" when the directory
// does not exist or holds no match.
func LatestVersion(ws *workspace.FS, dir, base string) (string, error) {
	names, err := ws.ReadDirNames(dir)
	if err != nil {
		return "", err
	}
	re, err := regexp.Compile(`^` + regexp.QuoteMeta(base) + `(?:_(\d+))?\.md$`)
	if err != nil {
		return "", fmt.Errorf("draft: version pattern for %q: %w", base, err)
	}

	best := ""
	bestSuffix := -1
	for _, name := range names {
		m := re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		suffix := 0
		if m[1] != "" {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			suffix = n
		}
		if suffix > bestSuffix {
			bestSuffix = suffix
			best = name
		}
	}
	return best, nil
}
