package service

import (
	"context"
	"fmt"

	"splitfund/internal/domain"
	"splitfund/internal/logger"

	"github.com/shopspring/decimal"
)

// MemberDirectory answers room membership questions for the ledger.
type MemberDirectory interface {
	IsMember(ctx context.Context, roomID, userID int64) (bool, error)
	IsAdmin(ctx context.Context, roomID, userID int64) (bool, error)
}

// TransactionStore is the persistence surface the ledger drives. UpdateStatus
// must be a conditional (compare-and-swap) update and MarkReimbursed must
// apply the flag flip and the payment insert atomically.
type TransactionStore interface {
	Insert(ctx context.Context, t *domain.Transaction) error
	GetByID(ctx context.Context, roomID, id int64) (*domain.Transaction, error)
	ListByRoom(ctx context.Context, roomID int64) ([]domain.Transaction, error)
	ListByRoomAndStatus(ctx context.Context, roomID int64, status domain.TransactionStatus) ([]domain.Transaction, error)
	UpdateStatus(ctx context.Context, id, roomID int64, newStatus, expected domain.TransactionStatus) (int64, error)
	MarkReimbursed(ctx context.Context, id, roomID, adminID int64, memberUpiID string) (*domain.Transaction, *domain.Transaction, error)
}

// FundStore persists per-room fund snapshots.
type FundStore interface {
	Get(ctx context.Context, roomID int64) (*domain.FundSnapshot, error)
	Upsert(ctx context.Context, s *domain.FundSnapshot) error
}

// LedgerService owns the transaction status machine and the fund reconciler.
type LedgerService struct {
	members MemberDirectory
	txns    TransactionStore
	funds   FundStore

	maxAmount decimal.Decimal

	// OnSnapshot, when set, is called with every freshly reconciled
	// snapshot (used to push fund updates to room subscribers).
	OnSnapshot func(*domain.FundSnapshot)
}

func NewLedgerService(members MemberDirectory, txns TransactionStore, funds FundStore) *LedgerService {
	return &LedgerService{
		members:   members,
		txns:      txns,
		funds:     funds,
		maxAmount: decimal.New(1_000_000, 0),
	}
}

// SetMaxAmount caps the amount accepted by Submit.
func (s *LedgerService) SetMaxAmount(max decimal.Decimal) {
	s.maxAmount = max
}

// SubmitInput carries a member's contribution or reimbursement request.
type SubmitInput struct {
	RoomID        int64
	UserID        int64
	Type          domain.TransactionType
	Amount        decimal.Decimal
	Notes         string
	MerchantUpiID string
}

// Submit validates and records a new PENDING transaction. PENDING
// transactions never count toward the room's totals, so no reconciliation
// happens here.
func (s *LedgerService) Submit(ctx context.Context, in SubmitInput) (*domain.Transaction, error) {
	switch in.Type {
	case domain.TypeContribution, domain.TypeReimbursement:
	default:
		return nil, fmt.Errorf("%w: type %q cannot be submitted", domain.ErrValidation, in.Type)
	}

	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	if in.Amount.GreaterThan(s.maxAmount) {
		return nil, fmt.Errorf("%w: amount exceeds the per-transaction limit", domain.ErrValidation)
	}

	if in.Type == domain.TypeReimbursement {
		if in.Notes == "" {
			return nil, fmt.Errorf("%w: notes are required for a reimbursement", domain.ErrValidation)
		}
		if in.MerchantUpiID == "" {
			return nil, fmt.Errorf("%w: merchant UPI id is required for a reimbursement", domain.ErrValidation)
		}
	}

	ok, err := s.members.IsMember(ctx, in.RoomID, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: membership check: %v", domain.ErrStore, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: not a member of the room", domain.ErrAccessDenied)
	}

	t := &domain.Transaction{
		RoomID:        in.RoomID,
		UserID:        in.UserID,
		Type:          in.Type,
		Amount:        in.Amount,
		Status:        domain.StatusPending,
		Notes:         in.Notes,
		MerchantUpiID: in.MerchantUpiID,
	}
	if err := s.txns.Insert(ctx, t); err != nil {
		return nil, fmt.Errorf("%w: insert transaction: %v", domain.ErrStore, err)
	}

	txSubmitted.WithLabelValues(string(in.Type)).Inc()
	return t, nil
}

// List returns the room's transactions, optionally filtered by status.
// Members only.
func (s *LedgerService) List(ctx context.Context, roomID, userID int64, status domain.TransactionStatus) ([]domain.Transaction, error) {
	ok, err := s.members.IsMember(ctx, roomID, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: membership check: %v", domain.ErrStore, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: not a member of the room", domain.ErrAccessDenied)
	}

	var txns []domain.Transaction
	switch status {
	case "":
		txns, err = s.txns.ListByRoom(ctx, roomID)
	case domain.StatusPending, domain.StatusConfirmed, domain.StatusRejected:
		txns, err = s.txns.ListByRoomAndStatus(ctx, roomID, status)
	default:
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions: %v", domain.ErrStore, err)
	}
	return txns, nil
}

// Resolve moves a PENDING transaction to CONFIRMED or REJECTED. The
// transition is a conditional update keyed on the PENDING status, so of two
// concurrent resolutions exactly one wins and the other fails with
// InvalidState. A confirmed decision triggers a synchronous recomputation;
// if that recomputation fails the status change stands and the snapshot is
// transiently stale.
func (s *LedgerService) Resolve(ctx context.Context, roomID, adminID, txnID int64, decision domain.TransactionStatus) (*domain.Transaction, error) {
	if decision != domain.StatusConfirmed && decision != domain.StatusRejected {
		return nil, fmt.Errorf("%w: decision must be CONFIRMED or REJECTED", domain.ErrValidation)
	}

	if err := s.requireAdmin(ctx, roomID, adminID); err != nil {
		return nil, err
	}

	affected, err := s.txns.UpdateStatus(ctx, txnID, roomID, decision, domain.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("%w: update status: %v", domain.ErrStore, err)
	}
	if affected == 0 {
		existing, err := s.txns.GetByID(ctx, roomID, txnID)
		if err != nil {
			return nil, fmt.Errorf("%w: lookup transaction: %v", domain.ErrStore, err)
		}
		if existing == nil {
			return nil, fmt.Errorf("%w: transaction %d in room %d", domain.ErrNotFound, txnID, roomID)
		}
		return nil, fmt.Errorf("%w: transaction already %s", domain.ErrInvalidState, existing.Status)
	}

	txResolved.WithLabelValues(string(decision)).Inc()

	resolved, err := s.txns.GetByID(ctx, roomID, txnID)
	if err != nil {
		return nil, fmt.Errorf("%w: reload transaction: %v", domain.ErrStore, err)
	}

	if decision == domain.StatusConfirmed {
		s.recomputeSoft(ctx, roomID)
	}

	return resolved, nil
}

// MarkReimbursed pays out a confirmed reimbursement: flips its reimbursed
// flag and records the linked, already-CONFIRMED REIMBURSEMENT_PAYMENT row,
// then triggers a synchronous recomputation. The payout is terminal; a second
// call fails with InvalidState.
func (s *LedgerService) MarkReimbursed(ctx context.Context, roomID, adminID, txnID int64, memberUpiID string) (*domain.Transaction, *domain.Transaction, error) {
	if memberUpiID == "" {
		return nil, nil, fmt.Errorf("%w: member UPI id is required", domain.ErrValidation)
	}

	if err := s.requireAdmin(ctx, roomID, adminID); err != nil {
		return nil, nil, err
	}

	original, payment, err := s.txns.MarkReimbursed(ctx, txnID, roomID, adminID, memberUpiID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: mark reimbursed: %v", domain.ErrStore, err)
	}
	if original == nil {
		existing, err := s.txns.GetByID(ctx, roomID, txnID)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: lookup transaction: %v", domain.ErrStore, err)
		}
		if existing == nil {
			return nil, nil, fmt.Errorf("%w: transaction %d in room %d", domain.ErrNotFound, txnID, roomID)
		}
		return nil, nil, fmt.Errorf("%w: transaction is not a payable reimbursement", domain.ErrInvalidState)
	}

	reimbursementsPaid.Inc()
	s.recomputeSoft(ctx, roomID)

	return original, payment, nil
}

func (s *LedgerService) requireAdmin(ctx context.Context, roomID, userID int64) error {
	ok, err := s.members.IsAdmin(ctx, roomID, userID)
	if err != nil {
		return fmt.Errorf("%w: admin check: %v", domain.ErrStore, err)
	}
	if !ok {
		return fmt.Errorf("%w: admin role required", domain.ErrAccessDenied)
	}
	return nil
}

// recomputeSoft runs the reconciler after a successful status mutation.
// Failures leave the prior snapshot in place and are not surfaced to the
// caller: the triggering mutation already succeeded.
func (s *LedgerService) recomputeSoft(ctx context.Context, roomID int64) {
	if _, err := s.Recompute(ctx, roomID); err != nil {
		reconcileFailures.Inc()
		logger.Error("fund recompute failed, snapshot left stale", "room_id", roomID, "error", err)
	}
}
