package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tit-vcs/tit/api"
)

// Downloads commits and branches from the current server
var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Receives commits and branches from the current server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd.Context(), api.Pull)
	},
}

func init() {
	RootCmd.AddCommand(pullCmd)
}
