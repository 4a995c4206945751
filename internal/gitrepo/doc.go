// Package gitrepo extracts per-commit diffs and commit metadata from a git
// repository by shelling out to git.
//
// [CommitDiff] returns the patch for a single commit against its parent, the
// unit of work the message pipeline operates on. [ListCommits] returns the
// ordered, oldest-first list of commits in a revision range for local-range
// mode. [RebaseInProgress] reports whether the repository has a stale
// interactive rebase that must be resolved before history can be rewritten.
package gitrepo
