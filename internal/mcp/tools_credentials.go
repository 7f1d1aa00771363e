package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerCredentialTools() {
	s.mcp.AddTool(mcp.NewTool("list_credentials",
		mcp.WithDescription("List stored credentials. Passwords are masked."),
		mcp.WithString("website", mcp.Description("Only include entries whose website contains this text (case-insensitive)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListCredentials)

	s.mcp.AddTool(mcp.NewTool("add_credential",
		mcp.WithDescription("Add a credential. All three fields must be non-empty."),
		mcp.WithString("website", mcp.Description("Website"), mcp.Required()),
		mcp.WithString("username", mcp.Description("Username"), mcp.Required()),
		mcp.WithString("password", mcp.Description("Password"), mcp.Required()),
	), s.handleAddCredential)

	s.mcp.AddTool(mcp.NewTool("update_credential",
		mcp.WithDescription("🛑 DESTRUCTIVE: Replace the credential at a position. Requires user approval."),
		mcp.WithNumber("index", mcp.Description("Position from list_credentials"), mcp.Required()),
		mcp.WithString("website", mcp.Description("Website"), mcp.Required()),
		mcp.WithString("username", mcp.Description("Username"), mcp.Required()),
		mcp.WithString("password", mcp.Description("Password"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleUpdateCredential)

	s.mcp.AddTool(mcp.NewTool("delete_credential",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete every credential for a website. Requires user approval."),
		mcp.WithString("website", mcp.Description("Exact website to delete"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteCredential)
}

// refresh re-reads the store so tools act on what the GUI last wrote.
func (s *Server) refresh(ctx context.Context) {
	s.credentials.Load(ctx)
}

func (s *Server) handleListCredentials(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.refresh(ctx)
	filter, _ := req.GetArguments()["website"].(string)
	filter = strings.ToLower(filter)

	all := summarize(s.credentials.Credentials())
	out := make([]credentialSummary, 0, len(all))
	for _, c := range all {
		if filter == "" || strings.Contains(strings.ToLower(c.Website), filter) {
			out = append(out, c)
		}
	}
	return jsonResult(out)
}

func (s *Server) handleAddCredential(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c := credentialArg(req.GetArguments())

	s.refresh(ctx)
	if err := s.credentials.Add(ctx, c); err != nil {
		return nil, fmt.Errorf("add credential: %w", err)
	}
	return textResult(fmt.Sprintf("Added credential for %s", c.Website)), nil
}

func (s *Server) handleUpdateCredential(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	index, err := indexArg(args, "index")
	if err != nil {
		return nil, err
	}
	c := credentialArg(args)
	if !c.Complete() {
		return nil, fmt.Errorf("update credential: missing %s", strings.Join(c.MissingFields(), ", "))
	}

	s.refresh(ctx)
	current := s.credentials.Credentials()
	if index >= len(current) {
		return nil, fmt.Errorf("no credential at index %d (have %d)", index, len(current))
	}
	old := current[index]

	approved, err := s.approval.Request(ctx, "update_credential",
		fmt.Sprintf("Replace credential #%d (%s / %s) with %s / %s", index, old.Website, old.Username, c.Website, c.Username),
		metadataJSON(map[string]any{"index": index, "website": old.Website}))
	if err != nil || !approved {
		return textResult("Action rejected by user"), nil
	}

	// The approval may have taken a while; make sure the slot still holds the same record.
	s.refresh(ctx)
	current = s.credentials.Credentials()
	if index >= len(current) || current[index] != old {
		return nil, fmt.Errorf("credential #%d changed while awaiting approval", index)
	}
	if err := s.credentials.Update(ctx, index, c); err != nil {
		return nil, fmt.Errorf("update credential: %w", err)
	}
	return textResult(fmt.Sprintf("Updated credential #%d", index)), nil
}

func (s *Server) handleDeleteCredential(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	website, _ := req.GetArguments()["website"].(string)
	if website == "" {
		return nil, fmt.Errorf("website is required")
	}

	s.refresh(ctx)
	matches := 0
	for _, c := range s.credentials.Credentials() {
		if c.Website == website {
			matches++
		}
	}

	approved, err := s.approval.Request(ctx, "delete_credential",
		fmt.Sprintf("Delete %d credential(s) for %s", matches, website),
		metadataJSON(map[string]any{"website": website, "matches": matches}))
	if err != nil || !approved {
		return textResult("Action rejected by user"), nil
	}

	s.refresh(ctx)
	msg, err := s.credentials.Delete(ctx, website)
	if err != nil {
		return nil, fmt.Errorf("delete credential: %w", err)
	}
	return textResult(msg), nil
}
