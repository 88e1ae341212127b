package service

import (
	"context"

	"splitfund/internal/domain"
	"splitfund/internal/logger"
	"splitfund/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// AuditService records who did what to a room's ledger. Failures are logged
// and swallowed; auditing never blocks the action it describes.
type AuditService struct {
	repo *repository.AuditRepository
}

func NewAuditService(db *pgxpool.Pool) *AuditService {
	return &AuditService{repo: repository.NewAuditRepository(db)}
}

// Log creates a new audit log entry
func (s *AuditService) Log(ctx context.Context, userID, roomID int64, action, category string, details map[string]interface{}) {
	entry := &domain.AuditLog{
		UserID:   userID,
		RoomID:   roomID,
		Action:   action,
		Category: category,
		Details:  details,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		logger.Error("failed to create audit log", "error", err, "action", action, "user_id", userID)
	}
}

// LogSubmit logs a member's contribution or reimbursement submission
func (s *AuditService) LogSubmit(ctx context.Context, userID, roomID int64, txnType domain.TransactionType, txnID int64, amount decimal.Decimal) {
	action := domain.AuditActionSubmitContribution
	if txnType == domain.TypeReimbursement {
		action = domain.AuditActionSubmitReimbursement
	}

	s.Log(ctx, userID, roomID, action, domain.AuditCategoryLedger, map[string]interface{}{
		"transaction_id": txnID,
		"amount":         amount.String(),
	})
}

// LogResolve logs an admin decision on a pending transaction
func (s *AuditService) LogResolve(ctx context.Context, adminID, roomID, txnID int64, decision domain.TransactionStatus) {
	action := domain.AuditActionResolveReject
	if decision == domain.StatusConfirmed {
		action = domain.AuditActionResolveConfirm
	}

	s.Log(ctx, adminID, roomID, action, domain.AuditCategoryLedger, map[string]interface{}{
		"transaction_id": txnID,
		"decision":       string(decision),
	})
}

// LogMarkReimbursed logs a reimbursement payout
func (s *AuditService) LogMarkReimbursed(ctx context.Context, adminID, roomID, txnID, paymentID int64, memberUpiID string) {
	s.Log(ctx, adminID, roomID, domain.AuditActionMarkReimbursed, domain.AuditCategoryLedger, map[string]interface{}{
		"transaction_id": txnID,
		"payment_id":     paymentID,
		"member_upi_id":  memberUpiID,
	})
}

// GetRoomLogs returns recent audit logs for a room
func (s *AuditService) GetRoomLogs(ctx context.Context, roomID int64, limit int) ([]*domain.AuditLog, error) {
	return s.repo.GetByRoom(ctx, roomID, limit)
}
