package domain

import "time"

// Room is a shared expense-tracking group with one admin and multiple members.
type Room struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	AdminID    int64     `db:"admin_id" json:"admin_id"`
	InviteCode string    `db:"invite_code" json:"invite_code,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// MemberRole represents a member's role within a room
type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

type Member struct {
	RoomID   int64      `db:"room_id" json:"room_id"`
	UserID   int64      `db:"user_id" json:"user_id"`
	Role     MemberRole `db:"role" json:"role"`
	JoinedAt time.Time  `db:"joined_at" json:"joined_at"`

	// Populated via JOIN
	Username    string `db:"username" json:"username,omitempty"`
	DisplayName string `db:"display_name" json:"display_name,omitempty"`
}
