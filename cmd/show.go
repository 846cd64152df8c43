package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tit-vcs/tit/repo"
)

// Displays a commit along with its changes
var showCmd = &cobra.Command{
	Use:   "show [commit id]",
	Short: "Displays a commit and the changes it made",
	RunE: func(cmd *cobra.Command, args []string) error {
		return show(args)
	},
}

func init() {
	RootCmd.AddCommand(showCmd)
}

func show(args []string) error {
	if len(args) > 1 {
		return errors.New("Only one commit can be shown at a time")
	}
	r, err := openRepo()
	if err != nil {
		return err
	}
	id, err := resolveOrHead(r, args)
	if err != nil {
		return err
	}
	if id == repo.NoCommit {
		return errors.New("The current branch has no commits yet")
	}
	c, err := r.Commits().Get(id)
	if err != nil {
		return err
	}

	s := createCommitText(id, c)
	if p, ok := c.Predecessor(); ok {
		s += fmt.Sprintf("  Parent: %s\n", p)
	}
	if _, err = fmt.Fprintln(fOut, s); err != nil {
		return err
	}
	for _, ch := range c.Changes {
		if _, err = fmt.Fprintf(fOut, "  %s\n", ch); err != nil {
			return err
		}
	}
	return nil
}
