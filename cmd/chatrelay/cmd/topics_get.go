package cmd

import (
	"fmt"

	"github.com/nfrund/chatrelay/cmd/chatrelay/internal/topics"
	"github.com/spf13/cobra"
)

var getOutputFormat string

// topicsGetCmd represents the topics get command
var topicsGetCmd = &cobra.Command{
	Use:   "get <topic-name>",
	Short: "Get detailed information about a specific topic",
	Long: `Show the scope, module, description, example payload and metadata of one
topic.

Examples:
  chatrelay topics get message-events
  chatrelay topics get user-presence-events --format json`,
	Args: cobra.ExactArgs(1),
	RunE: topicsGetHandler,
}

func topicsGetHandler(cmd *cobra.Command, args []string) error {
	topicName := args[0]

	manager, err := topics.Initialize()
	if err != nil {
		return fmt.Errorf("failed to initialize topics: %w", err)
	}

	topic, found := manager.Get(topicName)
	if !found {
		return fmt.Errorf("topic '%s' not found; use 'chatrelay topics list' to see all available topics", topicName)
	}
	return topics.DisplayTopicDetails(cmd.OutOrStdout(), topic, getOutputFormat)
}

func init() {
	topicsCmd.AddCommand(topicsGetCmd)

	topicsGetCmd.Flags().StringVarP(&getOutputFormat, "format", "f", "table", "Output format (table, json)")
}
