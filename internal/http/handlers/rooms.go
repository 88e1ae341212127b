package handlers

import (
	"net/http"
	"strconv"

	"splitfund/internal/domain"

	"github.com/gin-gonic/gin"
)

type CreateRoomRequest struct {
	Name string `json:"name"`
}

func (h *Handler) CreateRoom(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CreateRoomRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	ctx := c.Request.Context()
	room, err := h.Rooms.CreateRoom(ctx, userID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	h.Audit.Log(ctx, userID, room.ID, domain.AuditActionRoomCreate, domain.AuditCategoryRoom, map[string]interface{}{
		"name": room.Name,
	})

	c.JSON(http.StatusCreated, room)
}

type JoinRoomRequest struct {
	InviteCode string `json:"invite_code"`
}

func (h *Handler) JoinRoom(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req JoinRoomRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	ctx := c.Request.Context()
	room, err := h.Rooms.JoinRoom(ctx, userID, req.InviteCode)
	if err != nil {
		respondError(c, err)
		return
	}

	h.Audit.Log(ctx, userID, room.ID, domain.AuditActionRoomJoin, domain.AuditCategoryRoom, nil)

	c.JSON(http.StatusOK, room)
}

func (h *Handler) MyRooms(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	rooms, err := h.Rooms.ListRooms(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if rooms == nil {
		rooms = []domain.Room{}
	}

	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (h *Handler) GetRoom(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	roomID, err := parseRoomID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	room, err := h.Rooms.GetRoom(c.Request.Context(), roomID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

func (h *Handler) RoomMembers(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	roomID, err := parseRoomID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	members, err := h.Rooms.ListMembers(c.Request.Context(), roomID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if members == nil {
		members = []domain.Member{}
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

// RoomAudit returns the recent ledger activity for a room. Members only.
func (h *Handler) RoomAudit(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	roomID, err := parseRoomID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	ctx := c.Request.Context()
	member, err := h.Rooms.IsMember(ctx, roomID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of the room"})
		return
	}

	logs, err := h.Audit.GetRoomLogs(ctx, roomID, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if logs == nil {
		logs = []*domain.AuditLog{}
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func parseRoomID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("room_id"), 10, 64)
}
