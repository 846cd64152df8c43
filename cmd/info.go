package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Displays useful information about the tit installation
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Displays useful information about the tit installation",
	RunE: func(cmd *cobra.Command, args []string) error {
		return info()
	},
}

func init() {
	RootCmd.AddCommand(infoCmd)
}

func info() error {
	s := fmt.Sprintf("tit version %s\n", TIT_VERSION)

	// Display the path to the tit configuration file
	if confPath := viper.ConfigFileUsed(); confPath != "" {
		s += fmt.Sprintf("Configuration file used: %s\n", confPath)
	} else {
		s += fmt.Sprintln("No configuration file used")
	}

	s += fmt.Sprintf("\n** New repositories **\n\n")
	s += fmt.Sprintf("First branch: %s\n", viper.GetString("general.branch"))
	s += fmt.Sprintf("Default server: %s\n", viper.GetString("general.server"))
	s += fmt.Sprintf("Parse source files: %v\n", viper.GetBool("scan.sources"))

	s += fmt.Sprintf("\n** Sync **\n\n")
	s += fmt.Sprintf("Parallel transfers: %d\n", viper.GetInt("sync.parallel"))
	s += fmt.Sprintf("Request timeout: %v\n", viper.GetDuration("sync.timeout"))

	s += fmt.Sprintf("\n** Server **\n\n")
	s += fmt.Sprintf("Listen address: %s\n", viper.GetString("serve.listen"))
	if viper.GetBool("serve.memory") {
		s += fmt.Sprintln("Storage: in memory")
	} else {
		s += fmt.Sprintf("Storage: %s\n", viper.GetString("serve.data"))
	}

	_, err := fmt.Fprint(fOut, s)
	return err
}
