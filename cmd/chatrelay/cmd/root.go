package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chatrelay",
	Short: "Real-time chat presence and message relay",
	Long: `chatrelay accepts authenticated WebSocket connections to chat rooms,
publishes what clients send onto the event bus, and fans bus events back out
to every connection in the affected room.

Available commands:
  serve     Run the relay server
  token     Mint a signed connection token
  topics    Explore the bus topics the relay uses
  version   Print the version

Use "chatrelay [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
