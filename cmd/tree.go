package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tit-vcs/tit/tree"
)

// Pretty prints a tree
var treeCmd = &cobra.Command{
	Use:   "tree [commit id]",
	Short: "Displays the working directory tree, or the tree as of a commit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printTree(cmd.Context(), args)
	},
}

func init() {
	RootCmd.AddCommand(treeCmd)
}

func printTree(ctx context.Context, args []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}

	var t *tree.HashTree
	if len(args) == 0 {
		t, err = r.Scan(ctx, scanOptions())
	} else {
		var id string
		if id, err = r.ResolveCommit(args[0]); err != nil {
			return err
		}
		t, err = r.TreeAt(id)
	}
	if err != nil {
		return err
	}
	if err = t.Fprint(fOut); err != nil {
		return err
	}
	_, err = numFormat.Fprintf(fOut, "\n%d nodes\n", t.Len())
	return err
}
