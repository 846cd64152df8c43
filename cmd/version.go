package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Displays the version of tit
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Displays the version of tit being run",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintf(fOut, "tit version %s\n", TIT_VERSION)
		return err
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
