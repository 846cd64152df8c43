package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/message"
)

const TIT_VERSION = "0.1.0"

var (
	cfgFile, repoDir string
	fOut             io.Writer = os.Stdout
	numFormat        *message.Printer
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "tit",
	Short: "Version control for trees",
	Long: `tit is version control for trees.

It records the state of a directory, and optionally the syntax trees of the
source files in it, as a chain of tree diffs. Commits and branches can be
synchronised with a tit server.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute adds all child commands to the root command & sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Add support for pretty printing numbers
	numFormat = message.NewPrinter(message.MatchLanguage("en"))

	cobra.OnInitialize(initConfig)

	// Add the global flags
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.tit/config.toml)")
	RootCmd.PersistentFlags().StringVarP(&repoDir, "dir", "C", ".",
		"Run as if tit was started in this directory")
	RootCmd.PersistentFlags().Bool("sources", false,
		"Parse recognised source files into syntax trees when scanning")
	viper.BindPFlag("scan.sources", RootCmd.PersistentFlags().Lookup("sources"))

	setDefaults()
}

// setDefaults registers the value of every configuration key, for when neither the config file, the
// environment nor a flag sets it.
func setDefaults() {
	viper.SetDefault("general.branch", "main")
	viper.SetDefault("general.server", "http://127.0.0.1:6969")
	viper.SetDefault("scan.sources", false)
	viper.SetDefault("sync.parallel", 4)
	viper.SetDefault("sync.timeout", "30s")
	viper.SetDefault("serve.listen", ":6969")
	viper.SetDefault("serve.data", filepath.Join("~", ".tit", "server"))
	viper.SetDefault("serve.memory", false)
}

// initConfig reads in the config file and environment variables, if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for the config in ~/.tit
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		viper.AddConfigPath(filepath.Join(home, ".tit"))
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	// TIT_SERVE_LISTEN overrides serve.listen, and so on
	viper.SetEnvPrefix("TIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine, unless one was explicitly asked for
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			fmt.Fprintln(os.Stderr, "Error reading config file:", err)
		}
	}
}
