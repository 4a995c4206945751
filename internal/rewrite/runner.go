package rewrite

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Runner executes a git command in a directory with extra environment
// variables. Implementations must return combined stderr in the error when
// the command fails so the operator sees git's own message.
type Runner interface {
	Run(ctx context.Context, dir string, env []string, args ...string) (string, error)
}

// ExecRunner is the default Runner backed by os/exec.
type ExecRunner struct{}

// Run executes git with the given arguments.
func (ExecRunner) Run(ctx context.Context, dir string, env []string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("git %v: %w: %s", args, err, stderr.String())
	}
	return stdout.String(), nil
}
