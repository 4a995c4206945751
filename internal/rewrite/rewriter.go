package rewrite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	messageFilePattern = "commit-%d.txt"
	counterFile        = "count.txt"
	scriptFile         = "reword.sh"
)

// Identity is the committer identity stamped on rewritten commits. It is set
// explicitly so synthetic rebase commits do not depend on the invoking
// environment's git config.
type Identity struct {
	Name  string
	Email string
}

// Replacement pairs a commit with its original and improved messages,
// in chronological (oldest-first) order.
type Replacement struct {
	ID       string
	Original string
	Message  string
}

// Rewriter rewrites the messages of a contiguous span of local history.
type Rewriter struct {
	// Dir is the repository root. Protocol artifacts are written here.
	Dir       string
	Committer Identity
	Remote    string // force-push remote, default "origin"
	Branch    string // force-push target, default current HEAD
	Runner    Runner // nil = ExecRunner
}

// Changed reports whether any replacement actually differs from its
// original, by exact string equality.
func Changed(plan []Replacement) bool {
	for _, rep := range plan {
		if rep.Message != rep.Original {
			return true
		}
	}
	return false
}

// Rewrite replaces the message of every commit from anchor (the oldest
// commit in plan) through HEAD. Returns false without touching the
// repository when no message differs from its original.
//
// On rebase failure the repository is left in its in-progress state and the
// protocol artifacts stay on disk; the error tells the operator to resolve
// or abort manually.
func (r *Rewriter) Rewrite(ctx context.Context, plan []Replacement, anchor string) (bool, error) {
	if !Changed(plan) {
		return false, nil
	}

	if busy, err := r.rebaseInProgress(); err != nil {
		return false, err
	} else if busy {
		return false, fmt.Errorf("a rebase is already in progress in %s; resolve or abort it before rewording", r.Dir)
	}

	if err := r.writeArtifacts(plan); err != nil {
		return false, err
	}

	args := []string{"rebase", "--force-rebase", "--exec", "sh " + shellQuote(r.scriptPath())}
	if r.hasParent(ctx, anchor) {
		args = append(args, anchor+"^")
	} else {
		args = append(args, "--root")
	}

	env := []string{
		"GIT_COMMITTER_NAME=" + r.Committer.Name,
		"GIT_COMMITTER_EMAIL=" + r.Committer.Email,
	}
	if _, err := r.runner().Run(ctx, r.Dir, env, args...); err != nil {
		return false, fmt.Errorf("reword rebase failed, repository left mid-rebase: %w", err)
	}

	if err := r.removeArtifacts(len(plan)); err != nil {
		return false, err
	}
	return true, nil
}

// ForcePush overwrites the remote branch with the rewritten history.
func (r *Rewriter) ForcePush(ctx context.Context) error {
	remote := r.Remote
	if remote == "" {
		remote = "origin"
	}
	args := []string{"push", "--force", remote}
	if r.Branch != "" {
		args = append(args, "HEAD:"+r.Branch)
	}
	if _, err := r.runner().Run(ctx, r.Dir, nil, args...); err != nil {
		return fmt.Errorf("force push: %w", err)
	}
	return nil
}

// writeArtifacts materializes the message files, the zeroed counter, and the
// executable rewrite-step script.
func (r *Rewriter) writeArtifacts(plan []Replacement) error {
	for i, rep := range plan {
		path := filepath.Join(r.Dir, fmt.Sprintf(messageFilePattern, i))
		if err := os.WriteFile(path, []byte(rep.Message), 0o644); err != nil {
			return fmt.Errorf("writing message file %d: %w", i, err)
		}
	}
	if err := os.WriteFile(filepath.Join(r.Dir, counterFile), []byte("0"), 0o644); err != nil {
		return fmt.Errorf("writing counter file: %w", err)
	}
	if err := os.WriteFile(r.scriptPath(), []byte(r.script()), 0o755); err != nil {
		return fmt.Errorf("writing rewrite script: %w", err)
	}
	return nil
}

// script is the per-commit rewrite step: read the counter, amend the commit
// the rebase just replayed with the indexed message file, bump the counter.
func (r *Rewriter) script() string {
	dir := shellQuote(r.Dir)
	return fmt.Sprintf(`#!/bin/sh
set -e
cd %s
n=$(cat %s)
git commit --amend --no-verify -F "commit-$n.txt"
echo $((n+1)) > %s
`, dir, counterFile, counterFile)
}

func (r *Rewriter) removeArtifacts(n int) error {
	var firstErr error
	for i := 0; i < n; i++ {
		if err := os.Remove(filepath.Join(r.Dir, fmt.Sprintf(messageFilePattern, i))); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, name := range []string{counterFile, scriptFile} {
		if err := os.Remove(filepath.Join(r.Dir, name)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return fmt.Errorf("cleaning up rewrite artifacts: %w", firstErr)
	}
	return nil
}

func (r *Rewriter) rebaseInProgress() (bool, error) {
	for _, state := range []string{"rebase-merge", "rebase-apply"} {
		if _, err := os.Stat(filepath.Join(r.Dir, ".git", state)); err == nil {
			return true, nil
		} else if !os.IsNotExist(err) {
			return false, err
		}
	}
	return false, nil
}

func (r *Rewriter) hasParent(ctx context.Context, sha string) bool {
	_, err := r.runner().Run(ctx, r.Dir, nil, "rev-parse", "--verify", "--quiet", sha+"^")
	return err == nil
}

func (r *Rewriter) scriptPath() string {
	return filepath.Join(r.Dir, scriptFile)
}

func (r *Rewriter) runner() Runner {
	if r.Runner != nil {
		return r.Runner
	}
	return ExecRunner{}
}

// shellQuote wraps a path for safe interpolation into the rewrite script.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
