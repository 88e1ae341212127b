package repository

import (
	"context"

	"splitfund/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FundRepository persists per-room fund snapshots in the room_funds table,
// one row per room.
type FundRepository struct {
	db *pgxpool.Pool
}

func NewFundRepository(db *pgxpool.Pool) *FundRepository {
	return &FundRepository{db: db}
}

// Get returns the room's snapshot, or nil when none has been materialized yet.
func (r *FundRepository) Get(ctx context.Context, roomID int64) (*domain.FundSnapshot, error) {
	row := r.db.QueryRow(ctx, `
		SELECT room_id, total_contributions, total_reimbursements, current_balance, updated_at
		FROM room_funds
		WHERE room_id = $1
	`, roomID)

	var s domain.FundSnapshot
	if err := row.Scan(&s.RoomID, &s.TotalContributions, &s.TotalReimbursements, &s.CurrentBalance, &s.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// Upsert overwrites the room's snapshot in full. The conflict clause makes
// concurrent first-readers idempotent: both writes land the same totals.
func (r *FundRepository) Upsert(ctx context.Context, s *domain.FundSnapshot) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO room_funds (room_id, total_contributions, total_reimbursements, current_balance, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (room_id) DO UPDATE
		SET total_contributions = EXCLUDED.total_contributions,
		    total_reimbursements = EXCLUDED.total_reimbursements,
		    current_balance = EXCLUDED.current_balance,
		    updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`, s.RoomID, s.TotalContributions, s.TotalReimbursements, s.CurrentBalance).Scan(&s.UpdatedAt)
}
