// Reword is a CLI that rewrites commit messages with LLM providers.
//
// It takes a window of commits (from a CI push event or a local revision
// range), generates an improved message for each commit from its diff, and
// non-interactively rebases the branch to apply them, followed by a force
// push.
//
// Usage:
//
//	reword ci                          # reword the commits of the triggering push event
//	reword range origin/main..HEAD     # reword a local revision range
//	reword range HEAD~3..HEAD --dry-run  # inspect generated messages only
//	reword config show                 # show effective configuration
//
// See https://github.com/dshills/reword for full documentation.
package main
