package cmd

import (
	"fmt"
	"strings"

	"github.com/nfrund/chatrelay/cmd/chatrelay/internal/topics"
	"github.com/nfrund/chatrelay/internal/topicmgr"
	"github.com/spf13/cobra"
)

var (
	listOutputFormat string
	listModuleFilter string
	listScopeFilter  string
)

// topicsListCmd represents the topics list command
var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered topics",
	Long: `List the topics registered by the relay, in table or JSON format.

Examples:
  chatrelay topics list                      # All topics as a table
  chatrelay topics list --format json        # All topics as JSON
  chatrelay topics list --module chat        # Only the chat module's topics
  chatrelay topics list --scope framework    # Only framework-level topics

Output formats:
  table - Human-readable table format (default)
  json  - Machine-readable JSON format with metadata`,
	Args: cobra.NoArgs,
	RunE: topicsListHandler,
}

func topicsListHandler(cmd *cobra.Command, args []string) error {
	manager, err := topics.Initialize()
	if err != nil {
		return fmt.Errorf("failed to initialize topics: %w", err)
	}

	var scope topicmgr.TopicScope
	if listScopeFilter != "" {
		if scope = parseScope(listScopeFilter); scope == "" {
			return fmt.Errorf("invalid scope '%s'. Valid scopes: framework, module", listScopeFilter)
		}
	}

	var topicList []topicmgr.Topic
	switch {
	case listModuleFilter != "":
		for _, topic := range manager.ListByModule(listModuleFilter) {
			if scope == "" || topic.Scope() == scope {
				topicList = append(topicList, topic)
			}
		}
	case scope != "":
		topicList = manager.ListByScope(scope)
	default:
		topicList = manager.List()
	}

	out := cmd.OutOrStdout()
	if len(topicList) == 0 {
		message := "No topics found"
		var filters []string
		if listModuleFilter != "" {
			filters = append(filters, fmt.Sprintf("module '%s'", listModuleFilter))
		}
		if listScopeFilter != "" {
			filters = append(filters, fmt.Sprintf("scope '%s'", listScopeFilter))
		}
		if len(filters) > 0 {
			message += " matching: " + strings.Join(filters, ", ")
		}
		fmt.Fprintln(out, message)
		return nil
	}

	switch listOutputFormat {
	case "json":
		return topics.DisplayTopicsJSON(out, topicList)
	case "table":
		return topics.DisplayTopicsTable(out, topicList)
	default:
		return fmt.Errorf("unsupported output format '%s'. Use 'table' or 'json'", listOutputFormat)
	}
}

// parseScope converts string scope to topicmgr.TopicScope
func parseScope(scopeStr string) topicmgr.TopicScope {
	switch strings.ToLower(scopeStr) {
	case "framework":
		return topicmgr.ScopeFramework
	case "module":
		return topicmgr.ScopeModule
	default:
		return ""
	}
}

func init() {
	topicsCmd.AddCommand(topicsListCmd)

	topicsListCmd.Flags().StringVarP(&listOutputFormat, "format", "f", "table", "Output format (table, json)")
	topicsListCmd.Flags().StringVarP(&listModuleFilter, "module", "m", "", "Filter topics by module name")
	topicsListCmd.Flags().StringVarP(&listScopeFilter, "scope", "s", "", "Filter topics by scope (framework, module)")
}
