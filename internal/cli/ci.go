package cli

import (
	"fmt"
	"os"

	"github.com/dshills/reword/internal/event"
	"github.com/dshills/reword/internal/rewrite"
	"github.com/dshills/reword/internal/source"
	"github.com/spf13/cobra"
)

var ciCmd = &cobra.Command{
	Use:   "ci",
	Short: "Reword the commits of the triggering push event",
	Long: `Reads the push event payload from GITHUB_EVENT_PATH, rewords every commit
it carries, rewrites the branch, and force-pushes the result. Intended to run
inside a CI job triggered by a push.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadRunConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitFailure
			return
		}

		ev, err := event.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitFailure
			return
		}
		if len(ev.Commits) == 0 {
			fmt.Fprintln(os.Stderr, "No new commits to reword.")
			exitCode = ExitSuccess
			return
		}

		identity, err := actorIdentity()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitFailure
			return
		}

		opts, err := rewordOptions()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitFailure
			return
		}
		opts.Source = source.EventSource{Event: ev}
		opts.Anchor = ev.Commits[0].ID
		opts.Committer = rewrite.Identity{Name: identity.Name, Email: identity.Email}
		opts.Branch = ev.Branch()

		executeRun(cfg, opts)
	},
}

func init() {
	addRunFlags(ciCmd)
}
