package gitflow

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// scpLikeRe matches the git@host:path remote shape.
var scpLikeRe = regexp.MustCompile(`^[\w.-]+@([\w.-]+):(.+)$`)

// RewriteRemoteURL converts a configured remote URL into an HTTPS form with
// embedded credentials, so a push can authenticate with only a token and no
// ambient credential setup. https://, git@host:path, and ssh://host/path
// shapes are recognized. The result is used for a single push and never
// written back into repository configuration.
func RewriteRemoteURL(remote, username, token string) (string, error) {
	switch {
	case strings.HasPrefix(remote, "https://"):
		u, err := url.Parse(remote)
		if err != nil {
			return "", fmt.Errorf("gitflow: parse remote url: %w", err)
		}
		u.User = url.UserPassword(username, token)
		return u.String(), nil

	case strings.HasPrefix(remote, "ssh://"):
		u, err := url.Parse(remote)
		if err != nil {
			return "", fmt.Errorf("gitflow: parse remote url: %w", err)
		}
		path := strings.TrimPrefix(u.Path, "/")
		return fmt.Sprintf("https://%s:%s@%s/%s", username, token, u.Hostname(), path), nil

	default:
		m := scpLikeRe.FindStringSubmatch(remote)
		if m == nil {
			return "", fmt.Errorf("gitflow: unsupported remote url shape: %s", remote)
		}
		return fmt.Sprintf("https://%s:%s@%s/%s", username, token, m[1], m[2]), nil
	}
}
