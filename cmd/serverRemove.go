package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Forgets a server
var serverRemoveCmd = &cobra.Command{
	Use:   "remove [name]",
	Short: "Removes a server. The current server cannot be removed",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serverRemove(args)
	},
}

func init() {
	serverCmd.AddCommand(serverRemoveCmd)
}

func serverRemove(args []string) error {
	if len(args) != 1 {
		return errors.New("One server name is needed")
	}
	r, err := openRepo()
	if err != nil {
		return err
	}
	state, err := r.State()
	if err != nil {
		return err
	}
	if err = state.RemoveServer(args[0]); err != nil {
		return err
	}
	if err = r.SaveState(state); err != nil {
		return err
	}
	_, err = fmt.Fprintf(fOut, "Server '%s' removed\n", args[0])
	return err
}
