package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/intellidocs/internal/adapters/driving/mcp"
	"github.com/custodia-labs/intellidocs/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ask questions
about, search, and read summaries of your documents.

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

Examples:
  # Stdio mode (default, for desktop assistants)
  intellidocs mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  intellidocs mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "intellidocs": {
        "command": "/path/to/intellidocs",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	server, err := mcp.NewServer(&mcp.Ports{
		QA:       qaService,
		Document: documentService,
	})
	if err != nil {
		return err
	}

	logger.SetTimestamps(true)
	ctx := commandContext(cmd)
	stop, err := startScheduler(ctx)
	if err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer stop()

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
