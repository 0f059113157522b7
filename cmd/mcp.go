package cmd

import (
	"github.com/spf13/cobra"

	"github.com/SohamS7S/Smart-factory-ai/internal/mcp"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the factory MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents score readings and
evaluate recorded feeds through the score_reading and evaluate_feed tools.`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
