package mcpserver

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Approval events the GUI sends to the frontend.
const (
	EventApprovalRequired  = "mcp:approval-required"
	EventApprovalDismissed = "mcp:approval-dismissed"
)

const (
	statusPending  = "pending"
	statusApproved = "approved"
	statusRejected = "rejected"
)

// PendingAction is a credential change awaiting user approval.
type PendingAction struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	Metadata    string `json:"metadata"` // JSON with extra context (e.g. the affected website)
}

// ApprovalQueue gates MCP-initiated credential changes on a human decision.
// The MCP process writes a pending row to mcp_approvals and polls it; the GUI
// process lists pending rows and records the decision (cross-process IPC).
type ApprovalQueue struct {
	db      *sql.DB
	timeout time.Duration
	poll    time.Duration
}

// NewApprovalQueue creates a queue over the shared database with a two
// minute timeout.
func NewApprovalQueue(db *sql.DB) *ApprovalQueue {
	return &ApprovalQueue{
		db:      db,
		timeout: 120 * time.Second,
		poll:    500 * time.Millisecond,
	}
}

// SetTimeout changes how long Request waits for a decision.
func (q *ApprovalQueue) SetTimeout(d time.Duration) {
	q.timeout = d
}

// Request asks for approval and blocks until the user decides, the timeout
// elapses, or ctx is cancelled. Only an explicit approval returns true.
func (q *ApprovalQueue) Request(ctx context.Context, tool, description, metadata string) (bool, error) {
	id := uuid.New().String()
	if metadata == "" {
		metadata = "{}"
	}

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO mcp_approvals (id, tool, description, status, metadata) VALUES (?, ?, ?, ?, ?)`,
		id, tool, description, statusPending, metadata,
	)
	if err != nil {
		return false, fmt.Errorf("insert approval: %w", err)
	}
	// The row is removed however the wait ends, so the GUI stops showing it.
	defer q.db.Exec(`DELETE FROM mcp_approvals WHERE id = ?`, id)

	deadline := time.NewTimer(q.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(q.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var status string
			if err := q.db.QueryRowContext(ctx, `SELECT status FROM mcp_approvals WHERE id = ?`, id).Scan(&status); err != nil {
				continue
			}
			switch status {
			case statusApproved:
				return true, nil
			case statusRejected:
				return false, fmt.Errorf("action rejected by user: %s", tool)
			}
		case <-deadline.C:
			return false, fmt.Errorf("action timed out after %s: %s", q.timeout, tool)
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

// ResolveInDB records the user's decision for an action written by a
// standalone MCP process. It reports false when no pending row matched.
func ResolveInDB(ctx context.Context, db *sql.DB, actionID string, approved bool) (bool, error) {
	status := statusRejected
	if approved {
		status = statusApproved
	}
	res, err := db.ExecContext(ctx,
		`UPDATE mcp_approvals SET status = ? WHERE id = ? AND status = ?`,
		status, actionID, statusPending,
	)
	if err != nil {
		return false, fmt.Errorf("resolve approval %s: %w", actionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListPendingInDB returns the actions standalone MCP processes are waiting on.
func ListPendingInDB(ctx context.Context, db *sql.DB) ([]PendingAction, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, tool, description, created_at, metadata FROM mcp_approvals WHERE status = ? ORDER BY created_at`,
		statusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()

	var out []PendingAction
	for rows.Next() {
		var a PendingAction
		if err := rows.Scan(&a.ID, &a.Tool, &a.Description, &a.CreatedAt, &a.Metadata); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
