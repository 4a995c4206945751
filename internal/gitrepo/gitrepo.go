package gitrepo

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string
	Head   string
	Branch string
}

// GetRepoMeta collects repository metadata from git.
func GetRepoMeta() (RepoMeta, error) {
	root, err := gitOutput("rev-parse", "--show-toplevel")
	if err != nil {
		return RepoMeta{}, fmt.Errorf("not a git repository: %w", err)
	}
	head, err := gitOutput("rev-parse", "HEAD")
	if err != nil {
		head = "" // new repo with no commits
	}
	branch, err := gitOutput("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		branch = ""
	}
	return RepoMeta{
		Root:   strings.TrimSpace(root),
		Head:   strings.TrimSpace(head),
		Branch: strings.TrimSpace(branch),
	}, nil
}

// CommitDiff returns the patch for a commit against its parent. Works for
// root commits too, since git show diffs against the empty tree.
func CommitDiff(sha string) (string, error) {
	diff, err := gitOutput("show", "--format=", "-p", sha)
	if err != nil {
		return "", fmt.Errorf("git show %s: %w", sha, err)
	}
	return diff, nil
}

// CommitMessage returns the full commit message body for a commit.
func CommitMessage(sha string) (string, error) {
	out, err := gitOutput("log", "-1", "--format=%B", sha)
	if err != nil {
		return "", fmt.Errorf("git log %s: %w", sha, err)
	}
	return strings.TrimRight(out, "\n"), nil
}

// Commit holds a commit SHA and its subject line.
type Commit struct {
	SHA     string
	Subject string
}

// ListCommits returns commits in a revision range, oldest first.
func ListCommits(revRange string) ([]Commit, error) {
	// Use --format to get SHA and subject in a single git call.
	// Output format: "commit <sha>\n<subject>\n" per commit.
	out, err := gitOutput("rev-list", "--reverse", "--format=%s", revRange)
	if err != nil {
		return nil, fmt.Errorf("git rev-list %s: %w", revRange, err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return nil, nil
	}

	lines := strings.Split(out, "\n")
	var commits []Commit
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "commit ") {
			continue
		}
		sha := strings.TrimPrefix(line, "commit ")
		var subject string
		if i+1 < len(lines) {
			subject = strings.TrimSpace(lines[i+1])
			i++ // skip the subject line
		}
		commits = append(commits, Commit{
			SHA:     sha,
			Subject: subject,
		})
	}
	return commits, nil
}

// HasParent reports whether the commit has at least one parent.
func HasParent(sha string) bool {
	_, err := gitOutput("rev-parse", "--verify", "--quiet", sha+"^")
	return err == nil
}

// LocalIdentity reads the committer identity from git config.
func LocalIdentity() (name, email string, err error) {
	rawName, err := gitOutput("config", "user.name")
	if err != nil {
		return "", "", fmt.Errorf("git config user.name: %w", err)
	}
	rawEmail, err := gitOutput("config", "user.email")
	if err != nil {
		return "", "", fmt.Errorf("git config user.email: %w", err)
	}
	return strings.TrimSpace(rawName), strings.TrimSpace(rawEmail), nil
}

// RebaseInProgress reports whether an interactive or apply rebase is in
// flight. A rewrite run must not start while one is.
func RebaseInProgress() (bool, error) {
	for _, state := range []string{"rebase-merge", "rebase-apply"} {
		path, err := gitOutput("rev-parse", "--git-path", state)
		if err != nil {
			return false, fmt.Errorf("git rev-parse --git-path %s: %w", state, err)
		}
		if _, err := os.Stat(strings.TrimSpace(path)); err == nil {
			return true, nil
		}
	}
	return false, nil
}

func gitOutput(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return string(out), fmt.Errorf("%s: %s", err, string(exitErr.Stderr))
		}
		return "", err
	}
	return string(out), nil
}
