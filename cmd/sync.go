package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tit-vcs/tit/api"
	"github.com/tit-vcs/tit/repo"
)

// Exchanges commits and branches with the current server
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sends and receives commits and branches to and from the current server",
	Long: `Sends and receives commits and branches to and from the current server.

Branches are not merged. A branch takes the server's commit, unless the local
branch already contains that commit in its history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd.Context(), api.Sync)
	},
}

func init() {
	RootCmd.AddCommand(syncCmd)
	RootCmd.PersistentFlags().Int("parallel", 4, "Number of commits transferred at the same time")
	viper.BindPFlag("sync.parallel", RootCmd.PersistentFlags().Lookup("parallel"))
}

type syncFunc func(ctx context.Context, r *repo.Repository, client *api.Client, parallel int) (*api.Report, error)

// runSync runs one of the sync directions against the current server, and reports what moved.
func runSync(ctx context.Context, fn syncFunc) error {
	r, err := openRepo()
	if err != nil {
		return err
	}
	client, server, err := serverClient(r)
	if err != nil {
		return err
	}
	report, err := fn(ctx, r, client, viper.GetInt("sync.parallel"))
	if err != nil {
		return err
	}

	if report.Created {
		if _, err = fmt.Fprintf(fOut, "Created repository on server '%s'\n", server); err != nil {
			return err
		}
	}
	_, err = numFormat.Fprintf(fOut, "Synced with server '%s': %d commits received, %d commits sent\n", server,
		report.Downloaded, report.Uploaded)
	if err != nil {
		return err
	}
	if len(report.Branches) > 0 {
		_, err = fmt.Fprintf(fOut, "  Updated branches: %s\n", strings.Join(report.Branches, ", "))
		if err != nil {
			return err
		}
	}
	if len(report.Skipped) > 0 {
		_, err = fmt.Fprintf(fOut, "  Skipped branches with missing commits: %s\n", strings.Join(report.Skipped, ", "))
	}
	return err
}
