package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tit-vcs/tit/repo"
)

var changesCmdRaw bool

// Lists the changes between the last commit and the working directory
var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Lists the changes made since the last commit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return changes(cmd.Context())
	},
}

func init() {
	RootCmd.AddCommand(changesCmd)
	changesCmd.Flags().BoolVar(&changesCmdRaw, "raw", false,
		"Show the tree changes as they will be committed, without move detection")
}

func changes(ctx context.Context) error {
	r, err := openRepo()
	if err != nil {
		return err
	}
	pending, err := r.Changes(ctx, scanOptions())
	if err != nil {
		return err
	}
	if len(pending.Changes) == 0 {
		_, err = fmt.Fprintln(fOut, "No changes since the last commit")
		return err
	}

	if changesCmdRaw {
		for _, c := range pending.Changes {
			if _, err = fmt.Fprintf(fOut, "  %s\n", c); err != nil {
				return err
			}
		}
		return nil
	}
	for _, e := range repo.Summarize(pending.Base, pending.Current, pending.Changes) {
		if _, err = fmt.Fprintf(fOut, "  %s\n", e); err != nil {
			return err
		}
	}
	return nil
}
