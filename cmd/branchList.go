package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tit-vcs/tit/repo"
)

// Displays the list of branches
var branchListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the branches of the repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		return branchList()
	},
}

func init() {
	branchCmd.AddCommand(branchListCmd)
}

func branchList() error {
	r, err := openRepo()
	if err != nil {
		return err
	}
	state, err := r.State()
	if err != nil {
		return err
	}

	// Display the list of branches, sorted alphabetically
	_, err = fmt.Fprintf(fOut, "Branches for %s:\n\n", state.Project.Name)
	if err != nil {
		return err
	}
	for _, name := range state.BranchNames() {
		head := state.Branches[name]
		if head != repo.NoCommit {
			head = repo.ShortID(head)
		}
		marker := " "
		if name == state.Current.Branch {
			marker = "*"
		}
		if _, err = fmt.Fprintf(fOut, "  %s %s - Commit: %s\n", marker, name, head); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(fOut, "\n    Current branch: %s\n\n", state.Current.Branch)
	return err
}
