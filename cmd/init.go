package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tit-vcs/tit/repo"
)

var initCmdBranch, initCmdServer string

// Creates a new repository in the working directory
var initCmd = &cobra.Command{
	Use:   "init [project name]",
	Short: "Creates a tit repository in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return initRepo(args)
	},
}

func init() {
	RootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initCmdBranch, "branch", "",
		"Name of the first branch (default from general.branch)")
	initCmd.Flags().StringVar(&initCmdServer, "server", "",
		"Address of the default server (default from general.server)")
}

func initRepo(args []string) error {
	if len(args) > 1 {
		return errors.New("Only one project name can be given")
	}
	root, err := filepath.Abs(repoDir)
	if err != nil {
		return err
	}

	// The project is named after its directory, unless told otherwise
	name := filepath.Base(root)
	if len(args) == 1 {
		name = args[0]
	}

	// Command line flags override the configured defaults
	branch := viper.GetString("general.branch")
	if initCmdBranch != "" {
		branch = initCmdBranch
	}
	server := viper.GetString("general.server")
	if initCmdServer != "" {
		server = initCmdServer
	}

	r := repo.Open(root)
	if err = r.Init(name, server, branch); err != nil {
		return err
	}
	_, err = fmt.Fprintf(fOut, "Initialised repository '%s' in %s, on branch '%s'\n", name,
		filepath.Join(root, repo.Dir), branch)
	return err
}
