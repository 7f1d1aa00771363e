package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

const credentialsURI = "passbook://credentials"

func (s *Server) registerResources() {
	// ── passbook://credentials ─────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		credentialsURI,
		"All Credentials (masked)",
		mcp.WithMIMEType("application/json"),
	), s.handleCredentialsResource)
}

func (s *Server) handleCredentialsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	s.refresh(ctx)

	data, err := json.MarshalIndent(summarize(s.credentials.Credentials()), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      credentialsURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
