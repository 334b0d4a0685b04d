// Package server exposes the query surface as MCP tools over stdio.
package server

import (
	"context"
	"log/slog"

	"kloc/internal/registry"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverVersion = "0.1.0"

type Server struct {
	registry  *registry.Registry
	log       *slog.Logger
	mcpServer *mcp.Server
}

// NewServer wires the MCP tool set over a project registry.
func NewServer(reg *registry.Registry, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		registry: reg,
		log:      log,
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    "kloc",
			Version: serverVersion,
		}, nil),
	}
	s.registerTools()
	return s
}

// Run serves MCP requests over stdio until the context is cancelled or the
// client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("mcp server starting", "projects", s.registry.Projects())
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

func textResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}
