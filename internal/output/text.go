package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/reword/internal/reword"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *reword.Report) error {
	ew := &errWriter{w: w}

	ew.println("Reword — commit message rewrite")
	if report.Repo.Root != "" {
		ew.printf("Repository: %s (branch: %s)\n", report.Repo.Root, report.Repo.Branch)
	}
	if report.Anchor != "" {
		ew.printf("Anchor: %s\n", shortSHA(report.Anchor))
	}
	ew.println(strings.Repeat("─", 60))
	ew.printf("Commits: %d total, %d changed", report.Summary.Total, report.Summary.Changed)
	if report.Summary.Cached > 0 {
		ew.printf(" (%d from cache)", report.Summary.Cached)
	}
	ew.println("")
	ew.println(strings.Repeat("─", 60))

	if report.Summary.Total == 0 {
		ew.println("\nNo new commits to reword.")
		return ew.err
	}

	for _, e := range report.Entries {
		marker := " "
		if e.Changed {
			marker = "*"
		}
		ew.printf("\n%s %s\n", marker, shortSHA(e.ID))
		ew.printf("  old: %s\n", subjectLine(e.Original))
		ew.printf("  new: %s\n", subjectLine(e.Improved))
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	switch {
	case report.Pushed:
		ew.println("History rewritten and force-pushed.")
	case report.Applied:
		ew.println("History rewritten locally (not pushed).")
	case report.Summary.Changed == 0:
		ew.println("All messages already good; nothing to rewrite.")
	default:
		ew.println("Dry run; no history was rewritten.")
	}
	ew.printf("Completed in %dms (git: %dms, LLM: %dms)\n",
		report.Timing.TotalMs, report.Timing.GitMs, report.Timing.LLMMs)

	return ew.err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

func subjectLine(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return message[:i]
	}
	return message
}
