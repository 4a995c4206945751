// Package reword orchestrates a full run: list the target commits, fetch
// their diffs, generate improved messages through the chunked pipeline, and
// rewrite history to apply them.
package reword
