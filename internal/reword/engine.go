package reword

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/reword/internal/cache"
	"github.com/dshills/reword/internal/config"
	"github.com/dshills/reword/internal/gitrepo"
	"github.com/dshills/reword/internal/pipeline"
	"github.com/dshills/reword/internal/providers"
	"github.com/dshills/reword/internal/redact"
	"github.com/dshills/reword/internal/rewrite"
	"github.com/dshills/reword/internal/source"
)

// DiffFetcher returns one commit's patch text.
type DiffFetcher interface {
	Diff(ctx context.Context, sha string) (string, error)
}

// LocalFetcher reads diffs from the local repository.
type LocalFetcher struct{}

func (LocalFetcher) Diff(ctx context.Context, sha string) (string, error) {
	return gitrepo.CommitDiff(sha)
}

// Options configures a run. Source is required; nil optional fields fall
// back to production defaults.
type Options struct {
	Config    config.Config
	Source    source.Source
	Fetcher   DiffFetcher         // nil = LocalFetcher
	Generator providers.Generator // nil = built from Config
	Cache     *cache.Cache        // nil = no caching
	Rewriter  *rewrite.Rewriter   // nil = built from repo metadata

	// Anchor is the oldest commit of the span. Empty means the first
	// commit the source lists.
	Anchor    string
	Committer rewrite.Identity
	Branch    string // force-push target, empty = current HEAD

	DryRun bool
	NoPush bool

	// Progress receives human-readable run updates. Nil discards them.
	Progress io.Writer
}

// Run executes a full reword: list commits, fetch diffs, generate improved
// messages, rewrite history, push. DryRun stops after generation; an empty
// commit list or a plan with no changed messages is a successful no-op.
func Run(ctx context.Context, opts Options) (*Report, error) {
	startTime := time.Now()
	cfg := opts.Config
	progress := opts.Progress
	if progress == nil {
		progress = io.Discard
	}

	// Repo metadata is informational. Outside a repository (hosted
	// fetcher, dry runs against an event payload) it stays empty.
	var repoInfo RepoInfo
	if meta, err := gitrepo.GetRepoMeta(); err == nil {
		repoInfo = RepoInfo{Root: meta.Root, Head: meta.Head, Branch: meta.Branch}
	}

	commits, err := opts.Source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing commits: %w", err)
	}
	if len(commits) == 0 {
		return &Report{
			Tool:    "reword",
			Version: "1.0",
			RunID:   generateRunID(),
			Repo:    repoInfo,
			Entries: []Entry{},
			Timing:  Timing{TotalMs: time.Since(startTime).Milliseconds()},
		}, nil
	}

	anchor := opts.Anchor
	if anchor == "" {
		anchor = commits[0].ID
	}

	gitStart := time.Now()
	diffs, err := fetchDiffs(ctx, opts.fetcher(), commits)
	if err != nil {
		return nil, err
	}
	gitMs := time.Since(gitStart).Milliseconds()

	if cfg.Privacy.RedactSecrets {
		for i := range diffs {
			diffs[i] = redact.Secrets(diffs[i])
		}
	}

	generator := opts.Generator
	if generator == nil {
		generator, err = providers.New(cfg.Provider, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("creating provider: %w", err)
		}
	}

	originals := make(map[string]string, len(commits))
	recs := make([]pipeline.DiffRecord, len(commits))
	for i, c := range commits {
		originals[c.ID] = c.Message
		recs[i] = pipeline.DiffRecord{ID: c.ID, Diff: diffs[i]}
	}

	system := SystemPrompt(cfg.Style)
	styleKey := cfg.Style.Key()
	var cacheHits atomic.Int64

	gen := func(ctx context.Context, rec pipeline.DiffRecord) (string, error) {
		key := cache.BuildKey(cfg.Provider, cfg.Model, styleKey, rec.Diff)
		if opts.Cache != nil {
			if msg, ok := opts.Cache.Get(key); ok {
				cacheHits.Add(1)
				return msg, nil
			}
		}
		resp, err := generator.Generate(ctx, providers.GenerateRequest{
			SystemPrompt: system,
			UserPrompt:   BuildUserPrompt(rec.Diff, originals[rec.ID]),
			MaxTokens:    1024,
		})
		if err != nil {
			return "", err
		}
		msg := CleanMessage(resp.Content)
		if msg == "" {
			// An unusable response keeps the original message.
			return originals[rec.ID], nil
		}
		if opts.Cache != nil {
			if err := opts.Cache.Put(key, msg); err != nil {
				fmt.Fprintf(progress, "warning: caching message: %v\n", err)
			}
		}
		return msg, nil
	}

	pipe := &pipeline.Pipeline{
		Generate:        gen,
		MaxChunkRetries: cfg.MaxChunkRetries,
		Notify:          notifier(progress),
	}

	llmStart := time.Now()
	improved, err := pipe.Improve(ctx, recs)
	if err != nil {
		return nil, fmt.Errorf("generating messages: %w", err)
	}
	llmMs := time.Since(llmStart).Milliseconds()

	entries := make([]Entry, len(improved))
	plan := make([]rewrite.Replacement, len(improved))
	for i, imp := range improved {
		orig := originals[imp.ID]
		entries[i] = Entry{
			ID:       imp.ID,
			Original: orig,
			Improved: imp.Message,
			Changed:  imp.Message != orig,
		}
		plan[i] = rewrite.Replacement{ID: imp.ID, Original: orig, Message: imp.Message}
	}

	report := &Report{
		Tool:    "reword",
		Version: "1.0",
		RunID:   generateRunID(),
		Repo:    repoInfo,
		Anchor:  anchor,
		Entries: entries,
		Summary: ComputeSummary(entries, int(cacheHits.Load())),
		Timing:  Timing{GitMs: gitMs, LLMMs: llmMs},
	}

	if opts.DryRun {
		report.Timing.TotalMs = time.Since(startTime).Milliseconds()
		return report, nil
	}

	rewriter := opts.Rewriter
	if rewriter == nil {
		rewriter = &rewrite.Rewriter{
			Dir:       repoInfo.Root,
			Committer: opts.Committer,
			Remote:    cfg.Remote,
			Branch:    opts.Branch,
		}
	}

	applied, err := rewriter.Rewrite(ctx, plan, anchor)
	if err != nil {
		return report, fmt.Errorf("rewriting history: %w", err)
	}
	report.Applied = applied

	if applied && !opts.NoPush {
		if err := rewriter.ForcePush(ctx); err != nil {
			return report, fmt.Errorf("pushing rewritten history: %w", err)
		}
		report.Pushed = true
	}

	report.Timing.TotalMs = time.Since(startTime).Milliseconds()
	return report, nil
}

func (o Options) fetcher() DiffFetcher {
	if o.Fetcher != nil {
		return o.Fetcher
	}
	return LocalFetcher{}
}

// fetchDiffs retrieves every commit's diff concurrently. Any single failure
// fails the whole batch.
func fetchDiffs(ctx context.Context, fetcher DiffFetcher, commits []source.Commit) ([]string, error) {
	diffs := make([]string, len(commits))
	errs := make([]error, len(commits))

	var wg sync.WaitGroup
	for i, c := range commits {
		wg.Add(1)
		go func(slot int, sha string) {
			defer wg.Done()
			diff, err := fetcher.Diff(ctx, sha)
			if err != nil {
				errs[slot] = fmt.Errorf("fetching diff for %s: %w", sha, err)
				return
			}
			diffs[slot] = diff
		}(i, c.ID)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return diffs, nil
}

func notifier(w io.Writer) pipeline.Notifier {
	return func(p pipeline.Progress) {
		if p.Retrying {
			fmt.Fprintf(w, "chunk failed at %d/%d, cooling down %s before retry\n",
				p.Completed, p.Total, p.Sleep.Round(time.Second))
			return
		}
		if p.Sleep > 0 {
			fmt.Fprintf(w, "processed %d/%d commits, sleeping %s\n",
				p.Completed, p.Total, p.Sleep.Round(time.Millisecond))
			return
		}
		fmt.Fprintf(w, "processed %d/%d commits\n", p.Completed, p.Total)
	}
}

// CleanMessage normalizes a raw model response into a usable commit message:
// markdown fences, wrapping quotes, and surrounding whitespace are stripped.
func CleanMessage(content string) string {
	content = strings.TrimSpace(content)

	// Strip markdown code fences if present
	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		if len(lines) >= 2 {
			start := 1
			end := len(lines)
			if strings.TrimSpace(lines[end-1]) == "```" {
				end = end - 1
			}
			content = strings.Join(lines[start:end], "\n")
		}
	}

	content = strings.TrimSpace(content)
	for _, q := range []string{`"`, "'", "`"} {
		if len(content) >= 2 && strings.HasPrefix(content, q) && strings.HasSuffix(content, q) {
			content = strings.TrimSpace(content[1 : len(content)-1])
			break
		}
	}
	return content
}

func generateRunID() string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%d", time.Now().UnixNano())))
	return fmt.Sprintf("%x", h[:16])
}
