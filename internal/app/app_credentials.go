package app

import (
	"errors"
	"fmt"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"passbook/internal/domain"
	mcpserver "passbook/internal/mcp"
	"passbook/internal/service"
)

// ============================================================
// Credentials
// ============================================================

// GetState returns the list (masked), the form and the copied flag.
func (a *App) GetState() StateView {
	return stateView(a.creds.State(), string(a.cfg.Backend))
}

// SetPendingInput records the form fields as the user types.
func (a *App) SetPendingInput(in PendingInput) {
	a.creds.SetPending(in.Website, in.Username, in.Password)
}

// SaveCredential submits the form. Validation problems are reported in the
// result rather than as an error so the frontend can show the message.
func (a *App) SaveCredential() (SaveResult, error) {
	err := a.creds.Save(a.ctx)

	var verr *domain.ValidationError
	switch {
	case err == nil:
		return SaveResult{Saved: true}, nil
	case errors.As(err, &verr):
		return SaveResult{Message: verr.UserMessage(), Missing: verr.Missing}, nil
	case errors.Is(err, domain.ErrOperationInFlight):
		wailsRuntime.LogDebugf(a.ctx, "[SaveCredential] ignored repeated save")
		return SaveResult{}, nil
	case errors.Is(err, domain.ErrIndexOutOfRange):
		return SaveResult{Message: "The entry being edited no longer exists."}, nil
	default:
		return SaveResult{}, err
	}
}

// DeleteCredential removes every entry for website and returns the message
// to show the user.
func (a *App) DeleteCredential(website string) (string, error) {
	msg, err := a.creds.Delete(a.ctx, website)
	if errors.Is(err, domain.ErrOperationInFlight) {
		return "", nil
	}
	return msg, err
}

// BeginEdit loads the entry at index into the form.
func (a *App) BeginEdit(index int) error {
	return a.creds.BeginEdit(index)
}

// CopyText puts text on the clipboard and raises the copied indicator.
func (a *App) CopyText(text string) {
	a.creds.Copy(a.ctx, text)
}

// CopyField copies one field of the entry at index. The clear password never
// crosses to the frontend; this is how the UI copies it.
func (a *App) CopyField(index int, field string) error {
	return a.creds.CopyField(a.ctx, index, domain.Field(field))
}

// MaskPassword renders p as one asterisk per character.
func (a *App) MaskPassword(p string) string {
	return service.Mask(p)
}

// ReloadCredentials re-reads the store and returns the fresh state.
func (a *App) ReloadCredentials() StateView {
	a.creds.Load(a.ctx)
	return a.GetState()
}

// ============================================================
// MCP approvals
// ============================================================

// ListMCPApprovals returns the actions the standalone MCP server is waiting on.
func (a *App) ListMCPApprovals() ([]mcpserver.PendingAction, error) {
	return mcpserver.ListPendingInDB(a.ctx, a.db.Conn())
}

// ApproveMCPAction lets a pending MCP change go ahead.
func (a *App) ApproveMCPAction(id string) error {
	return a.resolveMCPAction(id, true)
}

// RejectMCPAction blocks a pending MCP change.
func (a *App) RejectMCPAction(id string) error {
	return a.resolveMCPAction(id, false)
}

func (a *App) resolveMCPAction(id string, approved bool) error {
	ok, err := mcpserver.ResolveInDB(a.ctx, a.db.Conn(), id, approved)
	if err != nil {
		wailsRuntime.LogErrorf(a.ctx, "[MCP] resolve %s: %v", id, err)
		return err
	}
	if !ok {
		return fmt.Errorf("no pending action %s", id)
	}
	wailsRuntime.LogInfof(a.ctx, "[MCP] action %s approved=%v", id, approved)
	return nil
}

// ============================================================
// Snapshots
// ============================================================

// TakeSnapshot writes a snapshot now and returns its path ("" when nothing is stored).
func (a *App) TakeSnapshot() (string, error) {
	return a.snapshots.TakeSnapshot(a.ctx)
}

// ListSnapshots returns snapshot paths, newest first.
func (a *App) ListSnapshots() ([]string, error) {
	return a.snapshots.ListSnapshots()
}
