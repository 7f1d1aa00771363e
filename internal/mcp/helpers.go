package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"passbook/internal/domain"
	"passbook/internal/service"
)

// credentialSummary is what agents see: the password never leaves masked.
type credentialSummary struct {
	Index    int    `json:"index"`
	Website  string `json:"website"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func summarize(list []domain.Credential) []credentialSummary {
	out := make([]credentialSummary, len(list))
	for i, c := range list {
		out[i] = credentialSummary{
			Index:    i,
			Website:  c.Website,
			Username: c.Username,
			Password: service.Mask(c.Password),
		}
	}
	return out
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// credentialArg reads the three credential fields from tool arguments.
func credentialArg(args map[string]any) domain.Credential {
	website, _ := args["website"].(string)
	username, _ := args["username"].(string)
	password, _ := args["password"].(string)
	return domain.Credential{Website: website, Username: username, Password: password}
}

// indexArg reads a non-negative integer argument. JSON numbers arrive as float64.
func indexArg(args map[string]any, name string) (int, error) {
	switch v := args[name].(type) {
	case float64:
		if v < 0 || v != float64(int(v)) {
			return 0, fmt.Errorf("%s must be a non-negative integer", name)
		}
		return int(v), nil
	case int:
		if v < 0 {
			return 0, fmt.Errorf("%s must be a non-negative integer", name)
		}
		return v, nil
	default:
		return 0, fmt.Errorf("%s is required", name)
	}
}

func metadataJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func boolPtr(v bool) *bool { return &v }
