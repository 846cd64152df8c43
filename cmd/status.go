package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tit-vcs/tit/repo"
)

// Displays the current branch, and whether the working directory has changed since the last commit
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Displays whether the working directory has been modified since the last commit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return status(cmd.Context())
	},
}

func init() {
	RootCmd.AddCommand(statusCmd)
}

func status(ctx context.Context) error {
	r, err := openRepo()
	if err != nil {
		return err
	}
	state, err := r.State()
	if err != nil {
		return err
	}

	head := "no commits yet"
	if h := state.Head(); h != repo.NoCommit {
		head = repo.ShortID(h)
	}
	_, err = fmt.Fprintf(fOut, "Project: %s\nBranch: %s (%s)\n", state.Project.Name, state.Current.Branch, head)
	if err != nil {
		return err
	}
	if name, addr, err := state.Server(); err == nil {
		_, err = fmt.Fprintf(fOut, "Server: %s (%s)\n", name, addr)
		if err != nil {
			return err
		}
	}

	// Check if the working directory has changed, and let the user know
	pending, err := r.Changes(ctx, scanOptions())
	if err != nil {
		return err
	}
	if len(pending.Changes) == 0 {
		_, err = fmt.Fprintln(fOut, "  * unchanged")
		return err
	}
	_, err = numFormat.Fprintf(fOut, "  * %d pending changes\n", len(pending.Changes))
	return err
}
