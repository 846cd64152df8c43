package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tit-vcs/tit/repo"
)

var branchRevertBranch string

// Moves a branch back to an earlier commit in its history
var branchRevertCmd = &cobra.Command{
	Use:   "revert [commit id]",
	Short: "Resets a branch back to an earlier commit in its history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return branchRevert(args)
	},
}

func init() {
	branchCmd.AddCommand(branchRevertCmd)
	branchRevertCmd.Flags().StringVar(&branchRevertBranch, "branch", "",
		"Branch to revert (default current)")
}

func branchRevert(args []string) error {
	if len(args) == 0 {
		return errors.New("No commit id given")
	}
	if len(args) > 1 {
		return errors.New("Only one commit id can be given")
	}
	r, err := openRepo()
	if err != nil {
		return err
	}
	if err = r.RevertBranch(branchRevertBranch, args[0]); err != nil {
		return err
	}

	// Tell the user where the branch ended up
	state, err := r.State()
	if err != nil {
		return err
	}
	branch := branchRevertBranch
	if branch == "" {
		branch = state.Current.Branch
	}
	_, err = fmt.Fprintf(fOut, "Branch '%s' reverted to commit %s\n", branch, repo.ShortID(state.Branches[branch]))
	return err
}
