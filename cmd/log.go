package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tit-vcs/tit/repo"
)

var logCmdBranch string

// Displays the commit history of a branch
var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Displays the history for a branch",
	RunE: func(cmd *cobra.Command, args []string) error {
		return branchLog()
	},
}

func init() {
	RootCmd.AddCommand(logCmd)
	logCmd.Flags().StringVar(&logCmdBranch, "branch", "", "Branch to show the history of (default current)")
}

func branchLog() error {
	r, err := openRepo()
	if err != nil {
		return err
	}
	state, err := r.State()
	if err != nil {
		return err
	}

	// If no branch name was passed, use the current branch
	branch := logCmdBranch
	if branch == "" {
		branch = state.Current.Branch
	}
	head, ok := state.Branches[branch]
	if !ok {
		return fmt.Errorf("That branch ('%s') doesn't exist", branch)
	}

	chain, err := r.History(head)
	if err != nil {
		return err
	}
	if len(chain) == 0 {
		_, err = fmt.Fprintf(fOut, "Branch \"%s\" has no commits yet\n", branch)
		return err
	}
	_, err = fmt.Fprintf(fOut, "Branch \"%s\" history:\n\n", branch)
	if err != nil {
		return err
	}
	for _, c := range chain {
		if _, err = fmt.Fprintln(fOut, createCommitText(c.ID(), c)); err != nil {
			return err
		}
	}
	return nil
}

// resolveOrHead turns an id prefix into a full commit id, using the current head when none is given.
func resolveOrHead(r *repo.Repository, args []string) (string, error) {
	if len(args) > 0 {
		return r.ResolveCommit(args[0])
	}
	state, err := r.State()
	if err != nil {
		return "", err
	}
	return state.Head(), nil
}
