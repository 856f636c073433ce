package gitflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"draftsmith/internal/apperr"
	"draftsmith/internal/pathsafe"
)

const maxBranchAttempts = 100

// errGitFailed is what callers see for any git subprocess failure; the
// underlying detail stays in the logs and never crosses the trust boundary.
var errGitFailed = errors.New("git command failed")

// Config holds the engine's settings.
type Config struct {
	RepoRoot     string // optional override; must contain a .git directory
	Remote       string // remote name, "origin" when empty
	BranchPrefix string // default branch prefix, "draft" when empty
	Token        string // optional access token; enables token push
	Username     string // username for token HTTPS URLs
	UserName     string // committer name override
	UserEmail    string // committer email override
}

// Engine stages and pushes workspace changes as uniquely named branches.
//
// A single engine call is not safe against a concurrent second invocation
// over the same repository root; callers are expected to serialize pushes.
type Engine struct {
	run     Runner
	cfg     Config
	workDir string // starting point for repo discovery, CWD when empty
	now     func() time.Time
}

// NewEngine creates a push engine on top of a command runner.
func NewEngine(run Runner, cfg Config) *Engine {
	if cfg.Remote == "" {
		cfg.Remote = "origin"
	}
	if cfg.BranchPrefix == "" {
		cfg.BranchPrefix = "draft"
	}
	if cfg.Username == "" {
		cfg.Username = "x-access-token"
	}
	return &Engine{run: run, cfg: cfg, now: time.Now}
}

// PushRequest names the paths to stage and the commit message to use.
type PushRequest struct {
	BranchPrefix  string
	CommitMessage string
	Paths         []string
}

// PushResult reports what the engine did. Branch and CommitSha are nil when
// nothing was pushed.
type PushResult struct {
	Branch       *string  `json:"branch"`
	Pushed       bool     `json:"pushed"`
	CommitSha    *string  `json:"commitSha"`
	ChangedFiles []string `json:"changedFiles"`
}

// Push stages exactly the given paths on a fresh, uniquely named branch,
// commits with an explicitly resolved identity, and pushes. When the paths
// hold no changes the call is a no-op returning pushed=false, which makes
// speculative invocations safe.
func (e *Engine) Push(ctx context.Context, req PushRequest) (*PushResult, error) {
	repoRoot, err := e.resolveRepoRoot()
	if err != nil {
		return nil, err
	}
	paths, err := e.normalizePaths(repoRoot, req.Paths)
	if err != nil {
		return nil, err
	}

	prefix := strings.TrimSpace(req.BranchPrefix)
	if prefix == "" {
		prefix = e.cfg.BranchPrefix
	}

	statusArgs := append([]string{"status", "--porcelain", "--"}, paths...)
	statusOut, _, err := e.git(ctx, repoRoot, statusArgs...)
	if err != nil {
		return nil, err
	}
	if len(parseStatus(statusOut)) == 0 {
		return &PushResult{Pushed: false, ChangedFiles: []string{}}, nil
	}

	branch, err := e.uniqueBranchName(ctx, repoRoot, e.branchName(prefix, paths))
	if err != nil {
		return nil, err
	}

	if _, _, err := e.git(ctx, repoRoot, "checkout", "-b", branch); err != nil {
		return nil, err
	}
	addArgs := append([]string{"add", "--"}, paths...)
	if _, _, err := e.git(ctx, repoRoot, addArgs...); err != nil {
		return nil, err
	}

	diffArgs := append([]string{"diff", "--cached", "--name-only", "--"}, paths...)
	stagedOut, _, err := e.git(ctx, repoRoot, diffArgs...)
	if err != nil {
		return nil, err
	}
	stagedFiles := splitLines(stagedOut)
	if len(stagedFiles) == 0 {
		// The paths matched but git sees no net change; avoid an empty commit.
		return &PushResult{Branch: &branch, Pushed: false, ChangedFiles: []string{}}, nil
	}

	name, email, err := e.commitIdentity(ctx, repoRoot)
	if err != nil {
		return nil, err
	}
	// The identity applies to this commit only; repo config is never touched.
	commitArgs := []string{"-c", "user.name=" + name, "-c", "user.email=" + email, "commit", "-m", req.CommitMessage}
	if _, _, err := e.git(ctx, repoRoot, commitArgs...); err != nil {
		return nil, err
	}
	sha, _, err := e.git(ctx, repoRoot, "rev-parse", "HEAD")
	if err != nil {
		return nil, err
	}

	if err := e.push(ctx, repoRoot, branch); err != nil {
		return nil, err
	}
	return &PushResult{Branch: &branch, Pushed: true, CommitSha: &sha, ChangedFiles: stagedFiles}, nil
}

// push sends the branch to the remote. Without a token the named remote is
// used directly, relying on ambient credentials. With a token the remote's
// URL is rewritten per call into a credentialed HTTPS form.
func (e *Engine) push(ctx context.Context, repoRoot, branch string) error {
	if e.cfg.Token == "" {
		_, _, err := e.git(ctx, repoRoot, "push", "-u", e.cfg.Remote, branch)
		return err
	}
	remoteURL, _, err := e.git(ctx, repoRoot, "remote", "get-url", e.cfg.Remote)
	if err != nil {
		return err
	}
	pushURL, err := RewriteRemoteURL(remoteURL, e.cfg.Username, e.cfg.Token)
	if err != nil {
		slog.Error("remote url rewrite failed", slog.String("error", err.Error()))
		return errGitFailed
	}
	_, _, err = e.git(ctx, repoRoot, "push", "-u", pushURL, branch)
	return err
}

// resolveRepoRoot returns the configured repository root after verifying it,
// or discovers one by walking upward from the working directory.
func (e *Engine) resolveRepoRoot() (string, error) {
	if e.cfg.RepoRoot != "" {
		abs, err := filepath.Abs(e.cfg.RepoRoot)
		if err != nil {
			return "", fmt.Errorf("gitflow: resolve repo root: %w", err)
		}
		info, err := os.Stat(filepath.Join(abs, ".git"))
		if err != nil || !info.IsDir() {
			return "", fmt.Errorf("%w: configured repo root %s does not contain a .git directory", apperr.ErrInvalid, abs)
		}
		return abs, nil
	}

	start := e.workDir
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("gitflow: getwd: %w", err)
		}
		start = wd
	}
	current, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("gitflow: resolve start dir: %w", err)
	}
	for {
		info, err := os.Stat(filepath.Join(current, ".git"))
		if err == nil && info.IsDir() {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", errors.New("gitflow: git repository root not found")
		}
		current = parent
	}
}

func (e *Engine) normalizePaths(repoRoot string, inputs []string) ([]string, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no paths given", apperr.ErrInvalid)
	}
	seen := make(map[string]struct{}, len(inputs))
	out := make([]string, 0, len(inputs))
	for _, input := range inputs {
		rel, err := ResolveRepoPath(repoRoot, input)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[rel]; ok {
			continue
		}
		seen[rel] = struct{}{}
		out = append(out, rel)
	}
	return out, nil
}

// branchName builds {prefix}/{YYYYMMDDHHMMSS}, suffixed with a slug derived
// from the first path's file base name when one survives normalization.
func (e *Engine) branchName(prefix string, paths []string) string {
	ts := e.now().Format("20060102150405")
	base := path.Base(paths[0])
	slug := pathsafe.NormalizeName(strings.TrimSuffix(base, path.Ext(base)))
	if slug == "" {
		return prefix + "/" + ts
	}
	return prefix + "/" + ts + "-" + slug
}

// uniqueBranchName probes for an existing local ref and appends -1, -2, …
// until a free name is found.
func (e *Engine) uniqueBranchName(ctx context.Context, repoRoot, base string) (string, error) {
	candidate := base
	for attempt := 0; attempt < maxBranchAttempts; attempt++ {
		exists, err := e.branchExists(ctx, repoRoot, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(attempt+1)
	}
	return "", errors.New("gitflow: branch name collision not resolved")
}

// branchExists probes a local ref. show-ref exits 1 for a missing ref, which
// is the expected answer, not a failure.
func (e *Engine) branchExists(ctx context.Context, repoRoot, branch string) (bool, error) {
	_, _, err := e.run.Run(ctx, repoRoot, "show-ref", "--verify", "--quiet", "refs/heads/"+branch)
	if err == nil {
		return true, nil
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode == 1 {
		return false, nil
	}
	slog.Error("git show-ref failed", slog.String("branch", branch), slog.String("error", err.Error()))
	return false, errGitFailed
}

// commitIdentity resolves the committer: configuration overrides win,
// otherwise the repository's own settings are read. Both parts must be
// non-empty before any mutating command runs a commit.
func (e *Engine) commitIdentity(ctx context.Context, repoRoot string) (string, string, error) {
	name := strings.TrimSpace(e.cfg.UserName)
	email := strings.TrimSpace(e.cfg.UserEmail)
	if name == "" {
		name = e.configValue(ctx, repoRoot, "user.name")
	}
	if email == "" {
		email = e.configValue(ctx, repoRoot, "user.email")
	}
	if name == "" || email == "" {
		return "", "", fmt.Errorf("%w: commit identity is not configured", apperr.ErrInvalid)
	}
	return name, email, nil
}

// configValue reads a git config key, treating "unset" (exit 1) as empty.
func (e *Engine) configValue(ctx context.Context, repoRoot, key string) string {
	stdout, _, err := e.run.Run(ctx, repoRoot, "config", "--get", key)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(stdout)
}

// git runs a subcommand with argument and stream logging; token values are
// masked before anything reaches the log. Failures surface as the generic
// errGitFailed.
func (e *Engine) git(ctx context.Context, cwd string, args ...string) (string, string, error) {
	stdout, stderr, err := e.run.Run(ctx, cwd, args...)
	logArgs := strings.Join(e.mask(args), " ")
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			slog.Error("git command failed",
				slog.String("args", logArgs),
				slog.Int("exit_code", cmdErr.ExitCode),
				slog.String("stdout", cmdErr.Stdout),
				slog.String("stderr", cmdErr.Stderr))
		} else {
			slog.Error("git command failed", slog.String("args", logArgs), slog.String("error", err.Error()))
		}
		return stdout, stderr, errGitFailed
	}
	if stdout != "" {
		slog.Debug("git", slog.String("args", logArgs), slog.String("stdout", stdout))
	}
	if stderr != "" {
		slog.Warn("git", slog.String("args", logArgs), slog.String("stderr", stderr))
	}
	return stdout, stderr, nil
}

func (e *Engine) mask(args []string) []string {
	if e.cfg.Token == "" {
		return args
	}
	masked := make([]string, len(args))
	for i, a := range args {
		masked[i] = strings.ReplaceAll(a, e.cfg.Token, "***")
	}
	return masked
}

// parseStatus extracts the file column from porcelain status output, taking
// the right side of rename arrows.
func parseStatus(output string) []string {
	if output == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var files []string
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(line) <= 3 {
			continue
		}
		filePart := strings.TrimSpace(line[3:])
		if idx := strings.LastIndex(filePart, "->"); idx != -1 {
			filePart = strings.TrimSpace(filePart[idx+2:])
		}
		if filePart == "" {
			continue
		}
		if _, ok := seen[filePart]; ok {
			continue
		}
		seen[filePart] = struct{}{}
		files = append(files, filePart)
	}
	return files
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
