package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Displays the repositories held by the current server
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Returns a list of the repositories on the current server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return list()
	},
}

func init() {
	RootCmd.AddCommand(listCmd)
}

func list() error {
	r, err := openRepo()
	if err != nil {
		return err
	}
	client, server, err := serverClient(r)
	if err != nil {
		return err
	}
	repos, err := client.List()
	if err != nil {
		return err
	}
	if len(repos) == 0 {
		_, err = fmt.Fprintf(fOut, "No repositories on server '%s'\n", server)
		return err
	}
	_, err = fmt.Fprintf(fOut, "Repositories on server '%s':\n\n", server)
	if err != nil {
		return err
	}
	for _, info := range repos {
		_, err = numFormat.Fprintf(fOut, "  * %s - %d commits, %d branches, created %s\n", info.Name,
			info.Commits, info.Branches, info.Created.Format("2006-01-02"))
		if err != nil {
			return err
		}
	}
	return nil
}
