package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Registers a server address
var serverAddCmd = &cobra.Command{
	Use:   "add [name] [address]",
	Short: "Adds a server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serverAdd(args)
	},
}

func init() {
	serverCmd.AddCommand(serverAddCmd)
}

func serverAdd(args []string) error {
	if len(args) != 2 {
		return errors.New("Both a server name and its address are needed")
	}
	r, err := openRepo()
	if err != nil {
		return err
	}
	state, err := r.State()
	if err != nil {
		return err
	}
	if err = state.AddServer(args[0], args[1]); err != nil {
		return err
	}
	if err = r.SaveState(state); err != nil {
		return err
	}
	_, err = fmt.Fprintf(fOut, "Server '%s' added (%s)\n", args[0], args[1])
	return err
}
