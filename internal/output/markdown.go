package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/reword/internal/reword"
)

// MarkdownWriter outputs a summary table plus per-commit sections, suitable
// for CI job summaries.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *reword.Report) error {
	fmt.Fprintf(w, "## Reword\n\n")

	fmt.Fprintf(w, "| Commits | Changed | Cached |\n")
	fmt.Fprintf(w, "|---------|---------|--------|\n")
	fmt.Fprintf(w, "| %d | %d | %d |\n\n",
		report.Summary.Total, report.Summary.Changed, report.Summary.Cached)

	if report.Summary.Total == 0 {
		fmt.Fprintln(w, "No new commits to reword. :white_check_mark:")
		return nil
	}

	for _, e := range report.Entries {
		status := "unchanged"
		if e.Changed {
			status = "rewritten"
		}
		fmt.Fprintf(w, "### `%s` — %s\n\n", shortSHA(e.ID), status)
		fmt.Fprintf(w, "**Before:**\n\n%s\n\n", fence(e.Original))
		if e.Changed {
			fmt.Fprintf(w, "**After:**\n\n%s\n\n", fence(e.Improved))
		}
		fmt.Fprintf(w, "---\n\n")
	}

	switch {
	case report.Pushed:
		fmt.Fprintln(w, "History rewritten and force-pushed.")
	case report.Applied:
		fmt.Fprintln(w, "History rewritten locally (not pushed).")
	default:
		fmt.Fprintln(w, "No history was rewritten.")
	}
	fmt.Fprintf(w, "\n*Completed in %dms (git: %dms, LLM: %dms)*\n",
		report.Timing.TotalMs, report.Timing.GitMs, report.Timing.LLMMs)

	return nil
}

func fence(message string) string {
	return "```\n" + strings.TrimRight(message, "\n") + "\n```"
}
