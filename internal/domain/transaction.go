package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger transaction
type TransactionType string

const (
	TypeContribution         TransactionType = "CONTRIBUTION"
	TypeReimbursement        TransactionType = "REIMBURSEMENT"
	TypeReimbursementPayment TransactionType = "REIMBURSEMENT_PAYMENT"
)

// TransactionStatus represents the resolution state of a transaction.
// PENDING is the only non-terminal status: the allowed transitions are
// PENDING→CONFIRMED and PENDING→REJECTED.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusConfirmed TransactionStatus = "CONFIRMED"
	StatusRejected  TransactionStatus = "REJECTED"
)

type Transaction struct {
	ID            int64             `db:"id" json:"id"`
	RoomID        int64             `db:"room_id" json:"room_id"`
	UserID        int64             `db:"user_id" json:"user_id"`
	Type          TransactionType   `db:"type" json:"type"`
	Amount        decimal.Decimal   `db:"amount" json:"amount"`
	Status        TransactionStatus `db:"status" json:"status"`
	Notes         string            `db:"notes" json:"notes,omitempty"`
	MerchantUpiID string            `db:"merchant_upi_id" json:"merchant_upi_id,omitempty"`

	// Reimbursed flips true exactly once, on a CONFIRMED REIMBURSEMENT,
	// when the admin pays it out.
	Reimbursed   bool   `db:"reimbursed" json:"reimbursed"`
	MemberUpiID  string `db:"member_upi_id" json:"member_upi_id,omitempty"`
	ReimbursedBy *int64 `db:"reimbursed_by" json:"reimbursed_by,omitempty"`

	// ReferenceTransactionID links a REIMBURSEMENT_PAYMENT back to the
	// REIMBURSEMENT it settles.
	ReferenceTransactionID *int64 `db:"reference_transaction_id" json:"reference_transaction_id,omitempty"`

	TransactionDate time.Time `db:"transaction_date" json:"transaction_date"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
