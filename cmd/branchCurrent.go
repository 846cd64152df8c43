package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Displays the current branch
var branchCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Displays the name of the current branch",
	RunE: func(cmd *cobra.Command, args []string) error {
		return branchCurrent()
	},
}

func init() {
	branchCmd.AddCommand(branchCurrentCmd)
}

func branchCurrent() error {
	r, err := openRepo()
	if err != nil {
		return err
	}
	state, err := r.State()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(fOut, "Current branch: %s\n", state.Current.Branch)
	return err
}
