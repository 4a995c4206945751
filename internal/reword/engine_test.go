package reword

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/dshills/reword/internal/cache"
	"github.com/dshills/reword/internal/config"
	"github.com/dshills/reword/internal/providers"
	"github.com/dshills/reword/internal/rewrite"
	"github.com/dshills/reword/internal/source"
)

type fakeSource struct {
	commits []source.Commit
	err     error
}

func (s fakeSource) List(ctx context.Context) ([]source.Commit, error) {
	return s.commits, s.err
}

type fakeFetcher struct {
	diffs   map[string]string
	failSHA string
}

func (f fakeFetcher) Diff(ctx context.Context, sha string) (string, error) {
	if sha == f.failSHA {
		return "", errors.New("object not found")
	}
	return f.diffs[sha], nil
}

// fakeGenerator answers with a message derived from the diff inside the
// prompt, so per-commit outputs are distinguishable.
type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	prompts []string
}

func (g *fakeGenerator) Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, error) {
	g.mu.Lock()
	g.calls++
	g.prompts = append(g.prompts, req.UserPrompt)
	g.mu.Unlock()

	diff := req.UserPrompt
	if i := strings.Index(diff, "--- BEGIN DIFF ---\n"); i >= 0 {
		diff = diff[i+len("--- BEGIN DIFF ---\n"):]
	}
	if i := strings.Index(diff, "\n--- END DIFF ---"); i >= 0 {
		diff = diff[:i]
	}
	return providers.GenerateResponse{Content: "improved: " + diff}, nil
}

func (g *fakeGenerator) Name() string { return "fake" }

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type recordingRunner struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recordingRunner) Run(ctx context.Context, dir string, env []string, args ...string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, args)
	return "", nil
}

func testCommits(n int) ([]source.Commit, map[string]string) {
	commits := make([]source.Commit, n)
	diffs := make(map[string]string, n)
	for i := range commits {
		sha := fmt.Sprintf("sha%d", i)
		commits[i] = source.Commit{ID: sha, Message: "wip " + sha}
		diffs[sha] = "patch-" + sha
	}
	return commits, diffs
}

func TestRunDryRun(t *testing.T) {
	commits, diffs := testCommits(3)
	gen := &fakeGenerator{}

	report, err := Run(context.Background(), Options{
		Config:    config.Default(),
		Source:    fakeSource{commits: commits},
		Fetcher:   fakeFetcher{diffs: diffs},
		Generator: gen,
		DryRun:    true,
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if len(report.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(report.Entries))
	}
	for i, e := range report.Entries {
		wantID := fmt.Sprintf("sha%d", i)
		if e.ID != wantID {
			t.Errorf("entry %d id = %q, want %q", i, e.ID, wantID)
		}
		if e.Improved != "improved: patch-"+wantID {
			t.Errorf("entry %d improved = %q", i, e.Improved)
		}
		if !e.Changed {
			t.Errorf("entry %d should be marked changed", i)
		}
	}
	if report.Applied || report.Pushed {
		t.Error("dry run must not apply or push")
	}
	if report.Summary.Total != 3 || report.Summary.Changed != 3 {
		t.Errorf("summary = %+v", report.Summary)
	}
	if report.Anchor != "sha0" {
		t.Errorf("anchor = %q, want sha0", report.Anchor)
	}
	if gen.callCount() != 3 {
		t.Errorf("generator calls = %d, want 3", gen.callCount())
	}
}

func TestRunEmptySource(t *testing.T) {
	gen := &fakeGenerator{}
	report, err := Run(context.Background(), Options{
		Config:    config.Default(),
		Source:    fakeSource{},
		Generator: gen,
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(report.Entries) != 0 {
		t.Errorf("entries = %d, want 0", len(report.Entries))
	}
	if report.Applied || report.Pushed {
		t.Error("empty source must be a no-op")
	}
	if gen.callCount() != 0 {
		t.Error("generator must not be called for an empty source")
	}
}

func TestRunSourceError(t *testing.T) {
	_, err := Run(context.Background(), Options{
		Config: config.Default(),
		Source: fakeSource{err: errors.New("bad payload")},
	})
	if err == nil {
		t.Fatal("expected error from failing source")
	}
}

func TestRunFetchFailureIsAtomic(t *testing.T) {
	commits, diffs := testCommits(4)
	gen := &fakeGenerator{}

	_, err := Run(context.Background(), Options{
		Config:    config.Default(),
		Source:    fakeSource{commits: commits},
		Fetcher:   fakeFetcher{diffs: diffs, failSHA: "sha2"},
		Generator: gen,
		DryRun:    true,
	})
	if err == nil {
		t.Fatal("expected error when one diff fetch fails")
	}
	if !strings.Contains(err.Error(), "sha2") {
		t.Errorf("error should name the failing commit: %v", err)
	}
	if gen.callCount() != 0 {
		t.Error("no generation may happen when the diff batch fails")
	}
}

func TestRunRedactsDiffs(t *testing.T) {
	commits := []source.Commit{{ID: "sha0", Message: "add key"}}
	diffs := map[string]string{
		"sha0": `+api_key = "sk-ant-REDACTED"`,
	}
	gen := &fakeGenerator{}

	_, err := Run(context.Background(), Options{
		Config:    config.Default(),
		Source:    fakeSource{commits: commits},
		Fetcher:   fakeFetcher{diffs: diffs},
		Generator: gen,
		DryRun:    true,
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if len(gen.prompts) != 1 {
		t.Fatalf("prompts = %d, want 1", len(gen.prompts))
	}
	if strings.Contains(gen.prompts[0], "sk-ant-") {
		t.Error("secret leaked into the prompt")
	}
	if !strings.Contains(gen.prompts[0], "[REDACTED]") {
		t.Error("redaction placeholder missing from the prompt")
	}
}

func TestRunCacheHits(t *testing.T) {
	commits, diffs := testCommits(2)
	c, err := cache.New(true, t.TempDir(), 3600)
	if err != nil {
		t.Fatal(err)
	}

	gen := &fakeGenerator{}
	opts := Options{
		Config:    config.Default(),
		Source:    fakeSource{commits: commits},
		Fetcher:   fakeFetcher{diffs: diffs},
		Generator: gen,
		Cache:     c,
		DryRun:    true,
	}

	first, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Summary.Cached != 0 {
		t.Errorf("first run cached = %d, want 0", first.Summary.Cached)
	}
	if gen.callCount() != 2 {
		t.Fatalf("first run generator calls = %d, want 2", gen.callCount())
	}

	second, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Summary.Cached != 2 {
		t.Errorf("second run cached = %d, want 2", second.Summary.Cached)
	}
	if gen.callCount() != 2 {
		t.Errorf("second run must not call the generator, calls = %d", gen.callCount())
	}
	if second.Entries[0].Improved != first.Entries[0].Improved {
		t.Error("cached message differs from generated one")
	}
}

func TestRunAppliesAndPushes(t *testing.T) {
	commits, diffs := testCommits(2)
	gen := &fakeGenerator{}
	runner := &recordingRunner{}

	report, err := Run(context.Background(), Options{
		Config:    config.Default(),
		Source:    fakeSource{commits: commits},
		Fetcher:   fakeFetcher{diffs: diffs},
		Generator: gen,
		Rewriter: &rewrite.Rewriter{
			Dir:       t.TempDir(),
			Committer: rewrite.Identity{Name: "octo", Email: "octo@users.noreply.github.com"},
			Runner:    runner,
		},
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if !report.Applied {
		t.Error("report should be marked applied")
	}
	if !report.Pushed {
		t.Error("report should be marked pushed")
	}

	var sawRebase, sawPush bool
	for _, call := range runner.calls {
		switch call[0] {
		case "rebase":
			sawRebase = true
		case "push":
			sawPush = true
		}
	}
	if !sawRebase || !sawPush {
		t.Errorf("expected rebase and push invocations, got %v", runner.calls)
	}
}

func TestRunNoPush(t *testing.T) {
	commits, diffs := testCommits(1)
	runner := &recordingRunner{}

	report, err := Run(context.Background(), Options{
		Config:    config.Default(),
		Source:    fakeSource{commits: commits},
		Fetcher:   fakeFetcher{diffs: diffs},
		Generator: &fakeGenerator{},
		NoPush:    true,
		Rewriter: &rewrite.Rewriter{
			Dir:    t.TempDir(),
			Runner: runner,
		},
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !report.Applied {
		t.Error("report should be marked applied")
	}
	if report.Pushed {
		t.Error("no-push run must not push")
	}
	for _, call := range runner.calls {
		if call[0] == "push" {
			t.Errorf("unexpected push invocation: %v", call)
		}
	}
}

// identityGenerator echoes the original message back, producing a plan with
// no changes.
type identityGenerator struct{}

func (identityGenerator) Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, error) {
	content := req.UserPrompt
	if i := strings.Index(content, "Current commit message:\n"); i >= 0 {
		content = content[i+len("Current commit message:\n"):]
	}
	if i := strings.Index(content, "\n\n--- BEGIN DIFF ---"); i >= 0 {
		content = content[:i]
	}
	return providers.GenerateResponse{Content: content}, nil
}

func (identityGenerator) Name() string { return "identity" }

func TestRunUnchangedMessagesSkipRewrite(t *testing.T) {
	commits, diffs := testCommits(2)
	runner := &recordingRunner{}

	report, err := Run(context.Background(), Options{
		Config:    config.Default(),
		Source:    fakeSource{commits: commits},
		Fetcher:   fakeFetcher{diffs: diffs},
		Generator: identityGenerator{},
		Rewriter: &rewrite.Rewriter{
			Dir:    t.TempDir(),
			Runner: runner,
		},
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.Applied || report.Pushed {
		t.Error("unchanged plan must not apply or push")
	}
	if report.Summary.Changed != 0 {
		t.Errorf("summary changed = %d, want 0", report.Summary.Changed)
	}
	if len(runner.calls) != 0 {
		t.Errorf("no git commands expected, got %v", runner.calls)
	}
}
