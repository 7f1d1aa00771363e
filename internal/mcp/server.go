package mcpserver

import (
	"database/sql"
	"log"

	"passbook/internal/service"

	"github.com/mark3labs/mcp-go/server"
)

// Server is the MCP server for Passbook.
// It lets AI agents list credentials (masked) and propose changes, which a
// human approves in the GUI before they are written.
type Server struct {
	mcp         *server.MCPServer
	approval    *ApprovalQueue
	credentials *service.CredentialService
}

// Deps holds all dependencies passed from the App layer to the MCP server.
type Deps struct {
	Credentials *service.CredentialService
	ApprovalDB  *sql.DB // shared with the GUI, which resolves approvals
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	s := &Server{
		approval:    NewApprovalQueue(deps.ApprovalDB),
		credentials: deps.Credentials,
	}

	s.mcp = server.NewMCPServer(
		"passbook-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerCredentialTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}
