// ABOUTME: MCP server subcommand
// ABOUTME: Starts the MCP server on stdio for Claude Desktop integration
package cli

import (
	"context"

	"github.com/harperreed/dealflow/handlers"
	"github.com/harperreed/dealflow/views"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
)

// MCPCommand starts the MCP server on stdio and blocks until the client
// disconnects or ctx is cancelled.
func MCPCommand(ctx context.Context, svc views.Services, version string, log *logrus.Entry) error {
	log.Info("starting dealflow MCP server")
	server := handlers.NewServer(svc, version, log)
	return server.Run(ctx, &mcp.StdioTransport{})
}
