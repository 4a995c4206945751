// Package pipeline converts an ordered batch of per-commit diffs into an
// ordered batch of improved commit messages.
//
// Work is partitioned into small contiguous chunks. Requests within a chunk
// fan out concurrently and are awaited jointly; chunks execute strictly
// sequentially with a jittered delay between them to avoid tripping provider
// burst limits. When any request in a chunk fails, the chunk's results are
// discarded, the pipeline sleeps through the provider's minimum cooldown, and
// the same chunk is retried from its start offset. Authentication errors are
// fatal immediately.
//
// Output order always matches input order: results land in slots indexed by
// their original position, regardless of completion order.
package pipeline
