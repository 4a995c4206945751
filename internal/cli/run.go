package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dshills/reword/internal/cache"
	"github.com/dshills/reword/internal/config"
	"github.com/dshills/reword/internal/event"
	"github.com/dshills/reword/internal/github"
	"github.com/dshills/reword/internal/output"
	"github.com/dshills/reword/internal/providers"
	"github.com/dshills/reword/internal/reword"
	"github.com/spf13/cobra"
)

// Shared run flags
var (
	flagProvider string
	flagModel    string
	flagFormat   string
	flagOut      string
	flagActor    string
	flagDryRun   bool
	flagNoPush   bool
	flagViaAPI   bool
	flagNoRedact bool
	flagNoCache  bool
	flagRetries  int
)

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagProvider, "provider", "", "LLM provider (anthropic, openai, gemini, ollama)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model name")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, markdown)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagActor, "actor", "", "Committer actor name (default: GITHUB_ACTOR)")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Generate messages without rewriting history")
	cmd.Flags().BoolVar(&flagNoPush, "no-push", false, "Rewrite history but skip the force push")
	cmd.Flags().BoolVar(&flagViaAPI, "via-api", false, "Fetch diffs from the GitHub API instead of the local repository")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the message cache")
	cmd.Flags().IntVar(&flagRetries, "max-chunk-retries", 0, "Give up after this many retries of a failing chunk (0 = retry forever)")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagRetries > 0 {
		m["maxChunkRetries"] = fmt.Sprintf("%d", flagRetries)
	}
	return m
}

func loadRunConfig() (config.Config, error) {
	cfg, err := config.Load(buildOverrides())
	if err != nil {
		return config.Config{}, err
	}
	if flagNoRedact {
		cfg.Privacy.RedactSecrets = false
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}
	return cfg, nil
}

func openCache(cfg config.Config) *cache.Cache {
	if !cfg.Cache.Enabled || flagNoCache {
		return nil
	}
	c, err := cache.New(true, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: cache unavailable: %v\n", err)
		return nil
	}
	return c
}

func apiFetcher() (reword.DiffFetcher, error) {
	client, err := github.NewClient()
	if err != nil {
		return nil, err
	}
	owner, repo, err := repoSlug()
	if err != nil {
		return nil, err
	}
	return github.Fetcher{Client: client, Owner: owner, Repo: repo}, nil
}

// repoSlug resolves owner/repo from GITHUB_REPOSITORY or the origin remote.
func repoSlug() (string, string, error) {
	if slug := os.Getenv("GITHUB_REPOSITORY"); slug != "" {
		for i := 0; i < len(slug); i++ {
			if slug[i] == '/' {
				return slug[:i], slug[i+1:], nil
			}
		}
	}
	return github.DetectRepo()
}

// actorIdentity resolves the committer identity from the --actor flag or the
// CI environment.
func actorIdentity() (event.Identity, error) {
	if flagActor != "" {
		return event.DeriveIdentity(flagActor, os.Getenv("GITHUB_SERVER_URL")), nil
	}
	return event.ActorIdentity()
}

// rewordOptions builds the base engine options shared by the ci and range
// commands.
func rewordOptions() (reword.Options, error) {
	var opts reword.Options
	if flagViaAPI {
		fetcher, err := apiFetcher()
		if err != nil {
			return reword.Options{}, err
		}
		opts.Fetcher = fetcher
	}
	return opts, nil
}

// executeRun drives the engine and writes the report. It sets the process
// exit code instead of returning an error so cobra does not re-print it.
func executeRun(cfg config.Config, opts reword.Options) {
	opts.Config = cfg
	opts.DryRun = flagDryRun
	opts.NoPush = flagNoPush
	opts.Cache = openCache(cfg)
	if opts.Progress == nil {
		opts.Progress = os.Stderr
	}

	report, err := reword.Run(context.Background(), opts)
	if err != nil {
		if providers.IsAuthError(err) {
			fmt.Fprintf(os.Stderr, "Error: authentication failed: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		exitCode = ExitFailure
		return
	}

	if len(report.Entries) == 0 {
		fmt.Fprintln(os.Stderr, "No new commits to reword.")
	}

	if err := output.WriteReport(report, cfg.Format, flagOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		exitCode = ExitFailure
		return
	}

	exitCode = ExitSuccess
}
