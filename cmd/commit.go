package cmd

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tit-vcs/tit/repo"
)

var commitCmdMsg, commitCmdTimestamp string

// Create a commit for the working directory on the current branch
var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Records the changes in the working directory as a new commit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return commit(cmd.Context(), args)
	},
}

func init() {
	RootCmd.AddCommand(commitCmd)
	commitCmd.Flags().StringVarP(&commitCmdMsg, "message", "m", "",
		"Description of the changes in this commit")
	commitCmd.Flags().StringVar(&commitCmdTimestamp, "timestamp", "",
		"Use this timestamp (RFC3339) instead of the current time")
}

func commit(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return errors.New("commit records the whole working directory, and takes no arguments")
	}
	if commitCmdMsg == "" {
		return errors.New("A commit message is required (-m)")
	}

	// If a timestamp was given, use that instead of now
	now := time.Now()
	if commitCmdTimestamp != "" {
		t, err := time.Parse(time.RFC3339, commitCmdTimestamp)
		if err != nil {
			return errors.Wrap(err, "invalid --timestamp")
		}
		now = t
	}

	r, err := openRepo()
	if err != nil {
		return err
	}
	current, err := r.Scan(ctx, scanOptions())
	if err != nil {
		return err
	}
	c, err := r.Commit(commitCmdMsg, current, now)
	if err != nil {
		return err
	}

	state, err := r.State()
	if err != nil {
		return err
	}
	_, err = numFormat.Fprintf(fOut, "[%s %s] %s (%d changes)\n", state.Current.Branch, repo.ShortID(c.ID()),
		c.Message, len(c.Changes))
	return err
}
