package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Checks the repository for consistency
var fsckCmd = &cobra.Command{
	Use:   "fsck",
	Short: "Verifies the commits, branch histories and tree snapshot of the repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fsck()
	},
}

func init() {
	RootCmd.AddCommand(fsckCmd)
}

func fsck() error {
	r, err := openRepo()
	if err != nil {
		return err
	}
	if err = r.Verify(); err != nil {
		return fmt.Errorf("Repository check failed: %v", err)
	}
	ids, err := r.Commits().IDs()
	if err != nil {
		return err
	}
	state, err := r.State()
	if err != nil {
		return err
	}
	_, err = numFormat.Fprintf(fOut, "Repository OK: %d commits, %d branches\n", len(ids), len(state.Branches))
	return err
}
