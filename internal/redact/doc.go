// Package redact scrubs secret-looking material from diffs before they are
// sent to a generation provider. Detection is heuristic; the goal is to keep
// obviously sensitive tokens out of third-party request logs, not to be a
// complete secret scanner.
package redact
