package cmd

import (
	"github.com/spf13/cobra"
)

// topicsCmd represents the topics command
var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Explore the bus topics the relay uses",
	Long: `The topics command lists and describes the topics the relay publishes to
and consumes from, with their payload shape and valid actions.

Available subcommands:
  list      List all registered topics with optional filtering
  get       Get detailed information about a specific topic

Examples:
  # List all topics
  chatrelay topics list

  # List topics for a specific module
  chatrelay topics list --module=chat

  # List framework-level topics only
  chatrelay topics list --scope=framework

  # Get detailed information about a topic
  chatrelay topics get message-events

Use "chatrelay topics [command] --help" for more information about a specific command.`,
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}
