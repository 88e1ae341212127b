package service

import (
	"context"
	"fmt"

	"splitfund/internal/domain"

	"github.com/shopspring/decimal"
)

// Recompute rebuilds the room's fund snapshot from scratch out of its
// CONFIRMED transaction set and overwrites the stored snapshot. Full
// recomputation trades O(n) work per mutation for zero drift risk; per-room
// transaction volumes are small.
//
// A REIMBURSEMENT that has been paid out is excluded from the sum: its linked
// REIMBURSEMENT_PAYMENT row is the authoritative reimbursement event from
// that point on, so each reimbursement counts exactly once over its lifetime.
func (s *LedgerService) Recompute(ctx context.Context, roomID int64) (*domain.FundSnapshot, error) {
	confirmed, err := s.txns.ListByRoomAndStatus(ctx, roomID, domain.StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("%w: list confirmed transactions: %v", domain.ErrStore, err)
	}

	contributions := decimal.Zero
	reimbursements := decimal.Zero
	for _, t := range confirmed {
		switch t.Type {
		case domain.TypeContribution:
			contributions = contributions.Add(t.Amount)
		case domain.TypeReimbursement:
			if !t.Reimbursed {
				reimbursements = reimbursements.Add(t.Amount)
			}
		case domain.TypeReimbursementPayment:
			reimbursements = reimbursements.Add(t.Amount)
		}
	}

	snapshot := &domain.FundSnapshot{
		RoomID:              roomID,
		TotalContributions:  contributions,
		TotalReimbursements: reimbursements,
		CurrentBalance:      contributions.Sub(reimbursements),
	}

	if err := s.funds.Upsert(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("%w: persist snapshot: %v", domain.ErrStore, err)
	}

	snapshotRebuilds.Inc()
	if s.OnSnapshot != nil {
		s.OnSnapshot(snapshot)
	}

	return snapshot, nil
}

// GetFund returns the room's fund snapshot, materializing it on first read.
// The lazy path is idempotent under concurrent first readers: both recompute
// the same totals and the upsert is a full overwrite.
func (s *LedgerService) GetFund(ctx context.Context, roomID, userID int64) (*domain.FundSnapshot, error) {
	ok, err := s.members.IsMember(ctx, roomID, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: membership check: %v", domain.ErrStore, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: not a member of the room", domain.ErrAccessDenied)
	}

	snapshot, err := s.funds.Get(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: load snapshot: %v", domain.ErrStore, err)
	}
	if snapshot != nil {
		return snapshot, nil
	}

	return s.Recompute(ctx, roomID)
}
