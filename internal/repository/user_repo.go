package repository

import (
	"context"

	"splitfund/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// GetByProviderID retrieves a user by the external auth provider's subject id.
// Returns nil when the user does not exist.
func (r *UserRepository) GetByProviderID(ctx context.Context, providerID string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, provider_id, COALESCE(username, ''), COALESCE(display_name, ''), COALESCE(upi_id, ''), created_at
		FROM users
		WHERE provider_id = $1
	`, providerID)

	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, provider_id, COALESCE(username, ''), COALESCE(display_name, ''), COALESCE(upi_id, ''), created_at
		FROM users
		WHERE id = $1
	`, id)

	return scanUser(row)
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO users (provider_id, username, display_name, upi_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, u.ProviderID, u.Username, u.DisplayName, u.UpiID).Scan(&u.ID, &u.CreatedAt)
}

// UpdateProfile updates the mutable profile fields
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, displayName, upiID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET display_name = $2, upi_id = $3 WHERE id = $1
	`, id, displayName, upiID)
	return err
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.ProviderID, &u.Username, &u.DisplayName, &u.UpiID, &u.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
