package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrisk/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve docrisk to MCP clients",
	Long: `Serve the analyze_document tool, the effective settings (secrets
redacted) and the prompt templates to an MCP client.

Without --port the server speaks JSON-RPC on stdin/stdout, which is what
desktop assistants expect:

  {"mcpServers": {"docrisk": {"command": "docrisk", "args": ["mcp", "serve"]}}}

With --port it serves streamable HTTP instead, for the MCP Inspector or
remote clients:

  docrisk mcp serve --port 8080`,
	Args: cobra.NoArgs,
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
		return fmt.Errorf("read --port: %w", err)
	}

	session, err := openSession(cmd, nil)
	if err != nil {
		return err
	}
	defer session.Close()

	ports := &mcp.Ports{
		Pipeline: session,
		Settings: settingsService,
	}
	if services != nil {
		ports.Prompts = services.Prompts
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port <= 0 {
		return server.Run(cmd.Context())
	}
	addr := fmt.Sprintf(":%d", port)
	cmd.PrintErrf("MCP server listening on http://localhost%s/\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}
