package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RoomFund returns the room's reconciled fund snapshot, materializing it on
// first read.
func (h *Handler) RoomFund(c *gin.Context) {
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

	snapshot, err := h.Ledger.GetFund(c.Request.Context(), roomID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}
