package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundSnapshot is the denormalized per-room cache of reconciled totals.
// It is fully overwritten on every recomputation, never patched
// incrementally, so CurrentBalance always equals
// TotalContributions - TotalReimbursements as of UpdatedAt.
type FundSnapshot struct {
	RoomID              int64           `db:"room_id" json:"room_id"`
	TotalContributions  decimal.Decimal `db:"total_contributions" json:"total_contributions"`
	TotalReimbursements decimal.Decimal `db:"total_reimbursements" json:"total_reimbursements"`
	CurrentBalance      decimal.Decimal `db:"current_balance" json:"current_balance"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updated_at"`
}
