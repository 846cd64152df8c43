package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tit-vcs/tit/api"
)

// Uploads commits and branches to the current server
var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Sends commits and branches to the current server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd.Context(), api.Push)
	},
}

func init() {
	RootCmd.AddCommand(pushCmd)
}
