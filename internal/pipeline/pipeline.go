package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/dshills/reword/internal/providers"
)

// DiffRecord is one commit's diff, keyed by its immutable commit id.
type DiffRecord struct {
	ID   string
	Diff string
}

// Improved is one commit's generated message, keyed by the same id.
type Improved struct {
	ID      string
	Message string
}

// GenerateFunc produces a message for a single diff record.
type GenerateFunc func(ctx context.Context, rec DiffRecord) (string, error)

// Progress describes a pipeline checkpoint for observational logging.
type Progress struct {
	Completed int
	Total     int
	Sleep     time.Duration
	Retrying  bool
}

// Notifier receives progress notifications. May be nil.
type Notifier func(Progress)

// Pipeline runs chunked, rate-limit-aware message generation.
//
// The zero value is not usable; Generate must be set. All other fields are
// optional and default to production behavior.
type Pipeline struct {
	Generate GenerateFunc
	Policy   SizePolicy // nil = DefaultSizePolicy

	// MaxChunkRetries bounds how often a failing chunk is retried.
	// 0 retries the chunk indefinitely, matching the provider's
	// "cool down and try again" contract.
	MaxChunkRetries int

	Notify Notifier

	// Sleep and Rand are injection points for tests. Nil means real
	// time.Sleep (context-aware) and the global rand source.
	Sleep func(ctx context.Context, d time.Duration) error
	Rand  *rand.Rand
}

// Improve generates one message per input record, preserving input order.
// The result has exactly the same length and id sequence as recs.
func (p *Pipeline) Improve(ctx context.Context, recs []DiffRecord) ([]Improved, error) {
	if len(recs) == 0 {
		return nil, nil
	}

	policy := p.Policy
	if policy == nil {
		policy = DefaultSizePolicy
	}
	chunks := partition(recs, policy(len(recs)))

	results := make([]Improved, 0, len(recs))
	for ci, chunk := range chunks {
		retries := 0
		for {
			out, err := p.runChunk(ctx, chunk)
			if err == nil {
				results = append(results, out...)
				break
			}
			if providers.IsAuthError(err) {
				return nil, err
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			retries++
			if p.MaxChunkRetries > 0 && retries > p.MaxChunkRetries {
				return nil, fmt.Errorf("chunk %d failed after %d retries: %w", ci, p.MaxChunkRetries, err)
			}

			cooldown := p.cooldownDelay()
			p.notify(Progress{Completed: len(results), Total: len(recs), Sleep: cooldown, Retrying: true})
			if err := p.sleep(ctx, cooldown); err != nil {
				return nil, err
			}
		}

		if ci < len(chunks)-1 {
			delay := p.interChunkDelay()
			p.notify(Progress{Completed: len(results), Total: len(recs), Sleep: delay})
			if err := p.sleep(ctx, delay); err != nil {
				return nil, err
			}
		} else {
			p.notify(Progress{Completed: len(results), Total: len(recs)})
		}
	}

	return results, nil
}

// runChunk fans out one request per record and awaits them all. Results land
// in slots indexed by input position, so chunk-internal order is preserved
// no matter which request finishes first. Any failure discards the whole
// chunk's output.
func (p *Pipeline) runChunk(ctx context.Context, chunk []DiffRecord) ([]Improved, error) {
	out := make([]Improved, len(chunk))
	errs := make([]error, len(chunk))

	var wg sync.WaitGroup
	for i, rec := range chunk {
		wg.Add(1)
		go func(i int, rec DiffRecord) {
			defer wg.Done()
			msg, err := p.Generate(ctx, rec)
			if err != nil {
				errs[i] = fmt.Errorf("generating message for %s: %w", rec.ID, err)
				return
			}
			out[i] = Improved{ID: rec.ID, Message: msg}
		}(i, rec)
	}
	wg.Wait()

	// Auth failures win over transient ones so the caller aborts instead
	// of cooling down.
	var firstErr error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if providers.IsAuthError(err) {
			return nil, err
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// interChunkDelay is the anti-burst pause between successful chunks:
// 1000*U(1,5) + 100*U(1,5) milliseconds.
func (p *Pipeline) interChunkDelay() time.Duration {
	return time.Duration(1000*p.randInt(1, 5)+100*p.randInt(1, 5)) * time.Millisecond
}

// cooldownDelay is the long pause after a failed chunk, reflecting the
// provider's minimum cooldown: 60000 + 1000*U(1,5) milliseconds.
func (p *Pipeline) cooldownDelay() time.Duration {
	return time.Duration(60000+1000*p.randInt(1, 5)) * time.Millisecond
}

func (p *Pipeline) randInt(lo, hi int) int {
	if p.Rand != nil {
		return lo + p.Rand.Intn(hi-lo+1)
	}
	return lo + rand.Intn(hi-lo+1)
}

func (p *Pipeline) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (p *Pipeline) notify(prog Progress) {
	if p.Notify != nil {
		p.Notify(prog)
	}
}
