// Package cache stores generated commit messages on disk, keyed by a hash
// of provider, model, style, and diff content. A cache hit skips the
// provider call entirely, which matters when a run is retried after a
// mid-batch rate limit: already-generated messages are free the second time.
package cache
