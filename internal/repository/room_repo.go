package repository

import (
	"context"

	"splitfund/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoomRepository struct {
	db *pgxpool.Pool
}

func NewRoomRepository(db *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create inserts the room and the creator's admin membership in one
// transaction so a room can never exist without its admin.
func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO rooms (name, admin_id, invite_code)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, room.Name, room.AdminID, room.InviteCode).Scan(&room.ID, &room.CreatedAt)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO room_members (room_id, user_id, role)
		VALUES ($1, $2, $3)
	`, room.ID, room.AdminID, domain.RoleAdmin)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetByID returns the room, or nil when it does not exist.
func (r *RoomRepository) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, admin_id, invite_code, created_at
		FROM rooms
		WHERE id = $1
	`, id)

	return scanRoom(row)
}

// GetByInviteCode returns the room matching the invite code, or nil.
func (r *RoomRepository) GetByInviteCode(ctx context.Context, code string) (*domain.Room, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, admin_id, invite_code, created_at
		FROM rooms
		WHERE invite_code = $1
	`, code)

	return scanRoom(row)
}

// AddMember inserts a membership; joining twice is a no-op.
func (r *RoomRepository) AddMember(ctx context.Context, roomID, userID int64, role domain.MemberRole) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO room_members (room_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (room_id, user_id) DO NOTHING
	`, roomID, userID, role)
	return err
}

// IsMember reports whether the user is a confirmed member of the room.
func (r *RoomRepository) IsMember(ctx context.Context, roomID, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM room_members WHERE room_id = $1 AND user_id = $2)
	`, roomID, userID).Scan(&exists)
	return exists, err
}

// IsAdmin reports whether the user is the room's admin.
func (r *RoomRepository) IsAdmin(ctx context.Context, roomID, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM rooms WHERE id = $1 AND admin_id = $2)
	`, roomID, userID).Scan(&exists)
	return exists, err
}

// ListByUser returns the rooms the user belongs to, newest first.
func (r *RoomRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Room, error) {
	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.name, r.admin_id, r.invite_code, r.created_at
		FROM rooms r
		JOIN room_members m ON m.room_id = r.id
		WHERE m.user_id = $1
		ORDER BY r.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		var room domain.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.AdminID, &room.InviteCode, &room.CreatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// ListMembers returns the room's members with their profile names.
func (r *RoomRepository) ListMembers(ctx context.Context, roomID int64) ([]domain.Member, error) {
	rows, err := r.db.Query(ctx, `
		SELECT m.room_id, m.user_id, m.role, m.joined_at,
		       COALESCE(u.username, ''), COALESCE(u.display_name, '')
		FROM room_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.room_id = $1
		ORDER BY m.joined_at ASC
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.RoomID, &m.UserID, &m.Role, &m.JoinedAt, &m.Username, &m.DisplayName); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func scanRoom(row pgx.Row) (*domain.Room, error) {
	var room domain.Room
	if err := row.Scan(&room.ID, &room.Name, &room.AdminID, &room.InviteCode, &room.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &room, nil
}
