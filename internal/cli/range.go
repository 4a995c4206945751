package cli

import (
	"fmt"
	"os"

	"github.com/dshills/reword/internal/gitrepo"
	"github.com/dshills/reword/internal/rewrite"
	"github.com/dshills/reword/internal/source"
	"github.com/spf13/cobra"
)

var rangeCmd = &cobra.Command{
	Use:   "range <rev-range>",
	Short: "Reword the commits of a local revision range",
	Long: `Rewords every commit in the given revision range (for example
origin/main..HEAD) of the current repository. Use --dry-run to inspect the
generated messages without touching history.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadRunConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitFailure
			return
		}

		committer, err := rangeIdentity()
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
		opts.Source = source.RangeSource{Range: args[0]}
		opts.Committer = committer

		executeRun(cfg, opts)
	},
}

// rangeIdentity resolves the committer for local runs: the --actor flag,
// then the CI actor env, then the repository's own git config.
func rangeIdentity() (rewrite.Identity, error) {
	if id, err := actorIdentity(); err == nil {
		return rewrite.Identity{Name: id.Name, Email: id.Email}, nil
	}
	name, email, err := gitrepo.LocalIdentity()
	if err != nil {
		return rewrite.Identity{}, fmt.Errorf("no committer identity: set --actor, GITHUB_ACTOR, or git config user.name/user.email: %w", err)
	}
	return rewrite.Identity{Name: name, Email: email}, nil
}

func init() {
	addRunFlags(rangeCmd)
}
