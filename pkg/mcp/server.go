// Package mcp exposes askdb over the Model Context Protocol.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/askdb/pkg/mcp/tools"
	"github.com/ekaya-inc/askdb/pkg/services"
)

// ServerName is advertised to MCP clients during initialization.
const ServerName = "askdb"

// Server wraps the mcp-go MCPServer with the askdb tool set.
type Server struct {
	mcp    *server.MCPServer
	logger *zap.Logger
}

// NewServer creates an MCP server with the question tools registered.
func NewServer(version string, pipeline services.PipelineService, logger *zap.Logger) *Server {
	mcpServer := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	tools.RegisterHealthTool(mcpServer, version, datasource.RegisteredDialects)
	tools.RegisterAskTools(mcpServer, &tools.AskToolDeps{
		Pipeline: pipeline,
		Logger:   logger.Named("mcp_tools"),
	})

	return &Server{mcp: mcpServer, logger: logger}
}

// MCP returns the underlying MCPServer.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// NewStreamableHTTPServer creates a stateless HTTP transport for this server.
// The caller's mux decides the endpoint path.
func (s *Server) NewStreamableHTTPServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s.mcp,
		server.WithStateLess(true),
	)
}
