package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("audit_credentials",
		mcp.WithPromptDescription("Review stored credentials for duplicates and stale entries"),
		mcp.WithArgument("website",
			mcp.ArgumentDescription("Limit the review to websites containing this text (optional)"),
		),
	), s.handleAuditPrompt)
}

func (s *Server) handleAuditPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	scope := "all stored credentials"
	if website := req.Params.Arguments["website"]; website != "" {
		scope = fmt.Sprintf("credentials whose website contains %q", website)
	}
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Audit %s", scope),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Audit %s in Passbook. Follow these steps:

1. Use list_credentials (pass the website filter if one was given). Passwords come back masked.
2. Report entries that share the same website and username, and websites that appear more than once.
3. For each problem, propose a fix: update_credential for a corrected entry or delete_credential to drop a website.
4. Do not call update_credential or delete_credential until the user agrees. Each call still needs approval in the app.

Never ask the user to reveal a password.`, scope),
				},
			},
		},
	}, nil
}
