// Package gitflow stages, commits, and pushes draft changes by shelling out
// to the external git binary. Git is treated as a black box: no object-level
// operations are performed here.
package gitflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommandError describes a git invocation that exited non-zero or failed to
// start. ExitCode is -1 when the process never ran.
type CommandError struct {
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("git %s failed (exit %d)", strings.Join(e.Args, " "), e.ExitCode)
}

// Runner executes a git subcommand in a working directory. It exists so the
// engine can be tested without a git binary.
type Runner interface {
	Run(ctx context.Context, cwd string, args ...string) (stdout, stderr string, err error)
}

// ExecRunner runs the git binary found on PATH.
type ExecRunner struct{}

// Run executes git with the given arguments, returning trimmed stdout and
// stderr. A non-zero exit yields a *CommandError carrying both streams.
func (ExecRunner) Run(ctx context.Context, cwd string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = cwd

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	stdout := strings.TrimSpace(outBuf.String())
	stderr := strings.TrimSpace(errBuf.String())
	if err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return stdout, stderr, &CommandError{Args: args, ExitCode: code, Stdout: stdout, Stderr: stderr}
	}
	return stdout, stderr, nil
}
