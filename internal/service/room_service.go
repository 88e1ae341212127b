package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"splitfund/internal/domain"
	"splitfund/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RoomService manages rooms and memberships. It also backs the ledger's
// MemberDirectory through the underlying repository.
type RoomService struct {
	rooms *repository.RoomRepository
}

func NewRoomService(db *pgxpool.Pool) *RoomService {
	return &RoomService{rooms: repository.NewRoomRepository(db)}
}

// CreateRoom creates a room with the caller as admin and a fresh invite code.
func (s *RoomService) CreateRoom(ctx context.Context, userID int64, name string) (*domain.Room, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: room name is required", domain.ErrValidation)
	}

	code, err := newInviteCode()
	if err != nil {
		return nil, err
	}

	room := &domain.Room{
		Name:       name,
		AdminID:    userID,
		InviteCode: code,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("%w: create room: %v", domain.ErrStore, err)
	}
	return room, nil
}

// JoinRoom adds the caller as a member of the room behind the invite code.
func (s *RoomService) JoinRoom(ctx context.Context, userID int64, inviteCode string) (*domain.Room, error) {
	if inviteCode == "" {
		return nil, fmt.Errorf("%w: invite code is required", domain.ErrValidation)
	}

	room, err := s.rooms.GetByInviteCode(ctx, inviteCode)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup invite code: %v", domain.ErrStore, err)
	}
	if room == nil {
		return nil, fmt.Errorf("%w: no room for that invite code", domain.ErrNotFound)
	}

	if err := s.rooms.AddMember(ctx, room.ID, userID, domain.RoleMember); err != nil {
		return nil, fmt.Errorf("%w: add member: %v", domain.ErrStore, err)
	}
	return room, nil
}

// GetRoom returns a single room; callers must be members.
func (s *RoomService) GetRoom(ctx context.Context, roomID, userID int64) (*domain.Room, error) {
	ok, err := s.rooms.IsMember(ctx, roomID, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: membership check: %v", domain.ErrStore, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: not a member of the room", domain.ErrAccessDenied)
	}

	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: load room: %v", domain.ErrStore, err)
	}
	if room == nil {
		return nil, fmt.Errorf("%w: room %d", domain.ErrNotFound, roomID)
	}
	return room, nil
}

// ListRooms returns the rooms the caller belongs to.
func (s *RoomService) ListRooms(ctx context.Context, userID int64) ([]domain.Room, error) {
	rooms, err := s.rooms.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list rooms: %v", domain.ErrStore, err)
	}
	return rooms, nil
}

// ListMembers returns the room's members; callers must themselves be members.
func (s *RoomService) ListMembers(ctx context.Context, roomID, userID int64) ([]domain.Member, error) {
	ok, err := s.rooms.IsMember(ctx, roomID, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: membership check: %v", domain.ErrStore, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: not a member of the room", domain.ErrAccessDenied)
	}

	members, err := s.rooms.ListMembers(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: list members: %v", domain.ErrStore, err)
	}
	return members, nil
}

// IsMember exposes the membership check for the websocket fund feed.
func (s *RoomService) IsMember(ctx context.Context, roomID, userID int64) (bool, error) {
	return s.rooms.IsMember(ctx, roomID, userID)
}

func newInviteCode() (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate invite code: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
