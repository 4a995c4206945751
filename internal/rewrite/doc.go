// Package rewrite applies improved commit messages to local history.
//
// The rewriter drives a non-interactive rebase through an on-disk protocol:
// one message file per commit named by zero-based replay index, a counter
// file, and a small shell script that amends the commit the rebase machinery
// has just replayed with the indexed message, then bumps the counter. The
// rebase spans from the parent of the oldest replaced commit through the
// current tip, so replay order is chronological and index i always lands on
// the i-th oldest commit.
//
// All artifacts are ephemeral: deleted on success, left in place for operator
// inspection when the rebase fails mid-flight. A run refuses to start while
// the repository already has a rebase in progress.
package rewrite
