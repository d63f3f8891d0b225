package cmd

import (
	"context"
	"fmt"

	"github.com/nfrund/chatrelay/internal/config"
	"github.com/nfrund/chatrelay/internal/logging"
	"github.com/nfrund/chatrelay/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay server",
	Long: `Run the relay server. Configuration comes from the environment, with a
.env file in the working directory loaded first when present.

The server stops gracefully on SIGINT or SIGTERM: it stops accepting
connections, closes open ones (announcing their departure on the bus) and
then closes the bus.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}
		logging.New(cfg.LogFormat, cfg.LogLevel)

		s, err := server.New(context.Background(), cfg)
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}
		return s.Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
