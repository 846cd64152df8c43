package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Displays the known servers
var serverListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the servers of the repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serverList()
	},
}

func init() {
	serverCmd.AddCommand(serverListCmd)
}

func serverList() error {
	r, err := openRepo()
	if err != nil {
		return err
	}
	state, err := r.State()
	if err != nil {
		return err
	}
	for _, name := range state.ServerNames() {
		marker := " "
		if name == state.Current.Server {
			marker = "*"
		}
		if _, err = fmt.Fprintf(fOut, "  %s %s - %s\n", marker, name, state.Servers[name]); err != nil {
			return err
		}
	}
	return nil
}
