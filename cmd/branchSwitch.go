package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Changes the current branch
var branchSwitchCmd = &cobra.Command{
	Use:   "switch [branch name]",
	Short: "Makes another branch the current one",
	Long: `Makes another branch the current one. The committed tree of that branch becomes the base
that the working directory is compared against.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return branchSwitch(args)
	},
}

func init() {
	branchCmd.AddCommand(branchSwitchCmd)
}

func branchSwitch(args []string) error {
	if len(args) == 0 {
		return errors.New("No branch name given")
	}
	if len(args) > 1 {
		return errors.New("Only one branch can be current")
	}
	r, err := openRepo()
	if err != nil {
		return err
	}
	if err = r.SwitchBranch(args[0]); err != nil {
		return err
	}
	_, err = fmt.Fprintf(fOut, "Branch '%s' is now the current branch\n", args[0])
	return err
}
