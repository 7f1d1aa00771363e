package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passbook/internal/domain"
	"passbook/internal/service"
	"passbook/internal/storage"
)

type nopClipboard struct{}

func (nopClipboard) SetText(context.Context, string) error { return nil }

func newTestServer(t *testing.T, seed ...domain.Credential) (*Server, *storage.DB) {
	t.Helper()
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)

	creds := service.NewCredentialService(store, nopClipboard{}, nil, "", 0)
	for _, c := range seed {
		require.NoError(t, creds.Add(context.Background(), c))
	}

	db := newApprovalDB(t)
	s := New(Deps{Credentials: creds, ApprovalDB: db.Conn()})
	s.approval.SetTimeout(2 * time.Second)
	s.approval.poll = 5 * time.Millisecond
	return s, db
}

func callTool(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

// awaitApproval returns the ID of the next approval row the server writes.
func awaitApproval(t *testing.T, db *storage.DB) string {
	t.Helper()
	var id string
	require.Eventually(t, func() bool {
		pending, err := ListPendingInDB(context.Background(), db.Conn())
		if err != nil || len(pending) == 0 {
			return false
		}
		id = pending[len(pending)-1].ID
		return true
	}, time.Second, 5*time.Millisecond)
	return id
}

func resolve(t *testing.T, db *storage.DB, id string, approved bool) {
	t.Helper()
	ok, err := ResolveInDB(context.Background(), db.Conn(), id, approved)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListCredentials_MasksPasswords(t *testing.T) {
	s, _ := newTestServer(t,
		domain.Credential{Website: "github.com", Username: "octo", Password: "hunter2"},
		domain.Credential{Website: "example.org", Username: "me", Password: "pw"},
	)

	res, err := s.handleListCredentials(context.Background(), callTool(nil))
	require.NoError(t, err)

	var got []credentialSummary
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
	assert.Equal(t, []credentialSummary{
		{Index: 0, Website: "github.com", Username: "octo", Password: "*******"},
		{Index: 1, Website: "example.org", Username: "me", Password: "**"},
	}, got)
}

func TestListCredentials_Filter(t *testing.T) {
	s, _ := newTestServer(t,
		domain.Credential{Website: "GitHub.com", Username: "octo", Password: "x"},
		domain.Credential{Website: "example.org", Username: "me", Password: "y"},
	)

	res, err := s.handleListCredentials(context.Background(), callTool(map[string]any{"website": "github"}))
	require.NoError(t, err)

	var got []credentialSummary
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "GitHub.com", got[0].Website)
}

func TestAddCredential(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.handleAddCredential(context.Background(), callTool(map[string]any{
		"website": "a.com", "username": "u", "password": "p",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Added credential for a.com", resultText(t, res))
	assert.Equal(t, []domain.Credential{{Website: "a.com", Username: "u", Password: "p"}}, s.credentials.Credentials())

	_, err = s.handleAddCredential(context.Background(), callTool(map[string]any{"website": "b.com"}))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"username", "password"}, verr.Missing)
}

func TestDeleteCredential_Approved(t *testing.T) {
	s, db := newTestServer(t,
		domain.Credential{Website: "a.com", Username: "u1", Password: "p"},
		domain.Credential{Website: "b.com", Username: "u", Password: "p"},
		domain.Credential{Website: "a.com", Username: "u2", Password: "p"},
	)

	type outcome struct {
		res *mcp.CallToolResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := s.handleDeleteCredential(context.Background(), callTool(map[string]any{"website": "a.com"}))
		done <- outcome{res, err}
	}()

	resolve(t, db, awaitApproval(t, db), true)

	out := <-done
	require.NoError(t, out.err)
	assert.Equal(t, "Successfully deleted a.com's password", resultText(t, out.res))
	assert.Equal(t, []domain.Credential{{Website: "b.com", Username: "u", Password: "p"}}, s.credentials.Credentials())
	left, err := ListPendingInDB(context.Background(), db.Conn())
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestDeleteCredential_Rejected(t *testing.T) {
	seed := domain.Credential{Website: "a.com", Username: "u", Password: "p"}
	s, db := newTestServer(t, seed)

	done := make(chan *mcp.CallToolResult, 1)
	go func() {
		res, _ := s.handleDeleteCredential(context.Background(), callTool(map[string]any{"website": "a.com"}))
		done <- res
	}()

	resolve(t, db, awaitApproval(t, db), false)
	assert.Equal(t, "Action rejected by user", resultText(t, <-done))
	assert.Equal(t, []domain.Credential{seed}, s.credentials.Credentials())
}

func TestUpdateCredential_Approved(t *testing.T) {
	s, db := newTestServer(t, domain.Credential{Website: "a.com", Username: "u", Password: "old"})

	done := make(chan error, 1)
	go func() {
		_, err := s.handleUpdateCredential(context.Background(), callTool(map[string]any{
			"index": float64(0), "website": "a.com", "username": "u", "password": "new",
		}))
		done <- err
	}()

	resolve(t, db, awaitApproval(t, db), true)
	require.NoError(t, <-done)
	assert.Equal(t, "new", s.credentials.Credentials()[0].Password)
}

func TestUpdateCredential_BadIndex(t *testing.T) {
	s, _ := newTestServer(t, domain.Credential{Website: "a.com", Username: "u", Password: "p"})

	_, err := s.handleUpdateCredential(context.Background(), callTool(map[string]any{
		"index": float64(3), "website": "a.com", "username": "u", "password": "p",
	}))
	assert.Error(t, err)

	_, err = s.handleUpdateCredential(context.Background(), callTool(map[string]any{
		"index": float64(-1), "website": "a.com", "username": "u", "password": "p",
	}))
	assert.Error(t, err)

	_, err = s.handleUpdateCredential(context.Background(), callTool(map[string]any{
		"website": "a.com", "username": "u", "password": "p",
	}))
	assert.Error(t, err)
}

func TestCredentialsResource(t *testing.T) {
	s, _ := newTestServer(t, domain.Credential{Website: "a.com", Username: "u", Password: "abc"})

	contents, err := s.handleCredentialsResource(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, credentialsURI, text.URI)
	assert.Contains(t, text.Text, `"password": "***"`)
	assert.NotContains(t, text.Text, "abc")
}

func TestAuditPrompt(t *testing.T) {
	s, _ := newTestServer(t)

	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"website": "bank"}
	res, err := s.handleAuditPrompt(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, res.Description, `"bank"`)
	require.Len(t, res.Messages, 1)
}
