package repository

import (
	"context"

	"splitfund/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const transactionColumns = `
	id, room_id, user_id, type, amount, status, COALESCE(notes, ''),
	COALESCE(merchant_upi_id, ''), reimbursed, COALESCE(member_upi_id, ''),
	reimbursed_by, reference_transaction_id, transaction_date, updated_at`

type TransactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Insert creates a new transaction row. Status and reimbursed come from the
// caller so the same path serves PENDING submissions and already-CONFIRMED
// reimbursement payments.
func (r *TransactionRepository) Insert(ctx context.Context, t *domain.Transaction) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO transactions
			(room_id, user_id, type, amount, status, notes, merchant_upi_id, reference_transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, transaction_date, updated_at
	`, t.RoomID, t.UserID, t.Type, t.Amount, t.Status, t.Notes, t.MerchantUpiID, t.ReferenceTransactionID).
		Scan(&t.ID, &t.TransactionDate, &t.UpdatedAt)
}

// GetByID retrieves a transaction scoped to a room. Returns nil when no such
// transaction exists in that room.
func (r *TransactionRepository) GetByID(ctx context.Context, roomID, id int64) (*domain.Transaction, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = $1 AND room_id = $2
	`, id, roomID)

	return scanTransaction(row)
}

// ListByRoom returns the full transaction set for a room, newest first.
func (r *TransactionRepository) ListByRoom(ctx context.Context, roomID int64) ([]domain.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE room_id = $1
		ORDER BY transaction_date DESC
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListByRoomAndStatus returns the room's transactions in the given status.
func (r *TransactionRepository) ListByRoomAndStatus(ctx context.Context, roomID int64, status domain.TransactionStatus) ([]domain.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE room_id = $1 AND status = $2
		ORDER BY transaction_date DESC
	`, roomID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// UpdateStatus performs the compare-and-swap status transition: the row is
// updated only while it still holds the expected status. The affected count
// tells the caller whether this resolution won; concurrent resolvers of the
// same PENDING transaction see zero rows.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id, roomID int64, newStatus, expected domain.TransactionStatus) (int64, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE transactions
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND room_id = $2 AND status = $4
	`, id, roomID, newStatus, expected)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// MarkReimbursed atomically flips the reimbursed flag on a CONFIRMED,
// not-yet-reimbursed REIMBURSEMENT and inserts the linked, already-CONFIRMED
// REIMBURSEMENT_PAYMENT row carrying the same amount. Returns (nil, nil, nil)
// when the conditional update matched no row.
func (r *TransactionRepository) MarkReimbursed(ctx context.Context, id, roomID, adminID int64, memberUpiID string) (*domain.Transaction, *domain.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		UPDATE transactions
		SET reimbursed = TRUE, member_upi_id = $4, reimbursed_by = $3, updated_at = NOW()
		WHERE id = $1 AND room_id = $2 AND type = 'REIMBURSEMENT'
		  AND status = 'CONFIRMED' AND reimbursed = FALSE
		RETURNING `+transactionColumns+`
	`, id, roomID, adminID, memberUpiID)

	original, err := scanTransaction(row)
	if err != nil {
		return nil, nil, err
	}
	if original == nil {
		return nil, nil, nil
	}

	payment := &domain.Transaction{
		RoomID:                 roomID,
		UserID:                 adminID,
		Type:                   domain.TypeReimbursementPayment,
		Amount:                 original.Amount,
		Status:                 domain.StatusConfirmed,
		Notes:                  original.Notes,
		MerchantUpiID:          original.MerchantUpiID,
		ReferenceTransactionID: &original.ID,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO transactions
			(room_id, user_id, type, amount, status, notes, merchant_upi_id, reference_transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, transaction_date, updated_at
	`, payment.RoomID, payment.UserID, payment.Type, payment.Amount, payment.Status,
		payment.Notes, payment.MerchantUpiID, payment.ReferenceTransactionID).
		Scan(&payment.ID, &payment.TransactionDate, &payment.UpdatedAt)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	return original, payment, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := row.Scan(
		&t.ID, &t.RoomID, &t.UserID, &t.Type, &t.Amount, &t.Status, &t.Notes,
		&t.MerchantUpiID, &t.Reimbursed, &t.MemberUpiID,
		&t.ReimbursedBy, &t.ReferenceTransactionID, &t.TransactionDate, &t.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func scanTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(
			&t.ID, &t.RoomID, &t.UserID, &t.Type, &t.Amount, &t.Status, &t.Notes,
			&t.MerchantUpiID, &t.Reimbursed, &t.MemberUpiID,
			&t.ReimbursedBy, &t.ReferenceTransactionID, &t.TransactionDate, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}
