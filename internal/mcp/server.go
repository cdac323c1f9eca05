// Package mcp exposes read-only narrative views over the Model Context
// Protocol. The server never mutates world state; ticks and resolutions
// belong to the engine's owning process.
package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/emberfall/internal/storage"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "Emberfall Narrative MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// Server hosts the MCP server over a document store.
type Server struct {
	mcpServer *mcp.Server
}

// NewServer creates a configured MCP server backed by a document store.
func NewServer(store storage.DocumentStore) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{})

	mcp.AddTool(mcpServer, TensionTool(), TensionHandler(store))
	mcp.AddTool(mcpServer, ActiveSeedsTool(), ActiveSeedsHandler(store))
	mcp.AddTool(mcpServer, CataclysmTool(), CataclysmHandler(store))
	mcp.AddTool(mcpServer, RecentEchoesTool(), RecentEchoesHandler(store))

	return &Server{mcpServer: mcpServer}
}

// Serve starts the MCP server on stdio and blocks until it stops or the
// context ends. A context cancellation is a clean shutdown, not an error.
func (s *Server) Serve(ctx context.Context) error {
	err := s.mcpServer.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
