package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Removes the repository metadata, leaving the working files alone
var uninitCmd = &cobra.Command{
	Use:   "uninit",
	Short: "Removes the tit repository from the current directory",
	Long: `Removes the .tit directory, and with it every commit, branch and server entry.
The working files themselves are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return uninit()
	},
}

func init() {
	RootCmd.AddCommand(uninitCmd)
}

func uninit() error {
	r, err := openRepo()
	if err != nil {
		return err
	}
	if err = r.Uninit(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(fOut, "Removed repository from %s\n", r.Root())
	return err
}
