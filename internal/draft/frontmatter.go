package draft

import (
	"regexp"
	"strings"
)

// frontmatterRe matches a leading frontmatter block: a first line of exactly
// ---, the block body, and a closing --- line.
var frontmatterRe = regexp.MustCompile(`(?s)^---\n(.*?)\n---\n?`)

// setThumbnail rewrites the thumbnail: line inside the frontmatter block in
// place, or appends it inside the block when absent. Other keys keep their
// order and formatting untouched. Returns the content unchanged with
// updated=false when no frontmatter block exists.
func setThumbnail(content, url string) (string, bool) {
	m := frontmatterRe.FindStringSubmatch(content)
	if m == nil {
		return content, false
	}
	block := m[0]

	lines := strings.Split(m[1], "\n")
	found := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "thumbnail:") {
			lines[i] = "thumbnail: " + url
			found = true
		}
	}
	if !found {
		lines = append(lines, "thumbnail: "+url)
	}

	trailing := ""
	if strings.HasSuffix(block, "\n") {
		trailing = "\n"
	}
	updated := "---\n" + strings.Join(lines, "\n") + "\n---" + trailing
	return strings.Replace(content, block, updated, 1), true
}

// insertBanner places a banner image tag immediately after the frontmatter
// block, or at the top when there is none. A document already referencing a
// banner image is left alone.
func insertBanner(content, imageTag string) string {
	if strings.Contains(content, "/banner.") {
		return content
	}
	if block := frontmatterRe.FindString(content); block != "" {
		return content[:len(block)] + "\n" + imageTag + "\n\n" + content[len(block):]
	}
	return imageTag + "\n\n" + content
}
