package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Creates a branch at the current head, and switches to it
var branchCreateCmd = &cobra.Command{
	Use:   "create [branch name]",
	Short: "Creates a branch at the current commit and switches to it",
	RunE: func(cmd *cobra.Command, args []string) error {
		return branchCreate(args)
	},
}

func init() {
	branchCmd.AddCommand(branchCreateCmd)
}

func branchCreate(args []string) error {
	// Ensure a branch name was given
	if len(args) == 0 {
		return errors.New("No branch name given")
	}
	if len(args) > 1 {
		return errors.New("Only one branch can be created at a time")
	}
	r, err := openRepo()
	if err != nil {
		return err
	}
	if err = r.CreateBranch(args[0]); err != nil {
		return err
	}
	_, err = fmt.Fprintf(fOut, "Branch '%s' created, and is now the current branch\n", args[0])
	return err
}
