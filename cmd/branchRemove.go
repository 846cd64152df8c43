package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Removes a branch pointer
var branchRemoveCmd = &cobra.Command{
	Use:   "remove [branch name]",
	Short: "Removes a branch",
	Long: `Removes a branch pointer. Its commits stay in the commit store, but only those shared with
another branch's history remain reachable. The current branch cannot be removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return branchRemove(args)
	},
}

func init() {
	branchCmd.AddCommand(branchRemoveCmd)
}

func branchRemove(args []string) error {
	if len(args) == 0 {
		return errors.New("No branch name given")
	}
	if len(args) > 1 {
		return errors.New("Only one branch can be removed at a time (for now)")
	}
	r, err := openRepo()
	if err != nil {
		return err
	}
	if err = r.RemoveBranch(args[0]); err != nil {
		return err
	}
	_, err = fmt.Fprintf(fOut, "Branch '%s' removed\n", args[0])
	return err
}
