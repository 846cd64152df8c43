package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tit-vcs/tit/api"
)

// Runs a sync server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs a tit server that repositories can sync with",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":6969", "Address to listen on")
	serveCmd.Flags().String("data", "", "Directory to keep repositories in (default $HOME/.tit/server)")
	serveCmd.Flags().Bool("memory", false, "Keep repositories in memory only")
	viper.BindPFlag("serve.listen", serveCmd.Flags().Lookup("listen"))
	viper.BindPFlag("serve.data", serveCmd.Flags().Lookup("data"))
	viper.BindPFlag("serve.memory", serveCmd.Flags().Lookup("memory"))
}

func serve(ctx context.Context) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg := api.InMemoryStorageConfig()
	if !viper.GetBool("serve.memory") {
		dir, err := expandPath(viper.GetString("serve.data"))
		if err != nil {
			return err
		}
		cfg = api.DefaultStorageConfig(dir)
	}
	cfg.Logger = logger

	storage, err := api.OpenStorage(cfg)
	if err != nil {
		return err
	}
	defer storage.Close()

	srv := api.NewServer(storage, api.ServerConfig{
		Listen: viper.GetString("serve.listen"),
		Logger: logger,
	})
	return srv.Run(ctx)
}
