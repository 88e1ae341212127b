package domain

import "time"

// AuditLog represents an audit log entry for tracking important actions
type AuditLog struct {
	ID        int64                  `db:"id" json:"id"`
	UserID    int64                  `db:"user_id" json:"user_id"`
	RoomID    int64                  `db:"room_id" json:"room_id,omitempty"`
	Action    string                 `db:"action" json:"action"`
	Category  string                 `db:"category" json:"category"`
	Details   map[string]interface{} `db:"details" json:"details"`
	IP        string                 `db:"ip" json:"ip,omitempty"`
	UserAgent string                 `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// Audit categories
const (
	AuditCategoryAuth   = "auth"
	AuditCategoryRoom   = "room"
	AuditCategoryLedger = "ledger"
)

// Audit actions
const (
	AuditActionLogin = "login"

	AuditActionRoomCreate = "room_create"
	AuditActionRoomJoin   = "room_join"

	AuditActionSubmitContribution  = "submit_contribution"
	AuditActionSubmitReimbursement = "submit_reimbursement"
	AuditActionResolveConfirm      = "resolve_confirm"
	AuditActionResolveReject       = "resolve_reject"
	AuditActionMarkReimbursed      = "mark_reimbursed"
)
