package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Changes the server used for sync
var serverSwitchCmd = &cobra.Command{
	Use:   "switch [name]",
	Short: "Makes another server the one to sync with",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serverSwitch(args)
	},
}

func init() {
	serverCmd.AddCommand(serverSwitchCmd)
}

func serverSwitch(args []string) error {
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
	if err = state.SwitchServer(args[0]); err != nil {
		return err
	}
	if err = r.SaveState(state); err != nil {
		return err
	}
	_, err = fmt.Fprintf(fOut, "Now syncing with server '%s'\n", args[0])
	return err
}
