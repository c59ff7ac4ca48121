// ABOUTME: MCP server subcommand
// ABOUTME: Serves the opportunity tools over stdio for desktop agents
package cli

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/dealflow/handlers"
)

// MCPCommand runs the MCP server on stdio until the client disconnects.
func MCPCommand(ctx context.Context, env *Env, version string) error {
	log.Info("starting MCP server", "actor", env.Svc.Actor())
	server := handlers.NewServer(env.Svc, version)
	return server.Run(ctx, &mcp.StdioTransport{})
}
