package cmd

import (
	"github.com/spf13/cobra"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage the servers this repository syncs with",
}

func init() {
	RootCmd.AddCommand(serverCmd)
}
