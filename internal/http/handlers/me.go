package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Me(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.UserRepo.GetByID(ctx, userID)
	if err != nil || user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           user.ID,
		"provider_id":  user.ProviderID,
		"username":     user.Username,
		"display_name": user.DisplayName,
		"upi_id":       user.UpiID,
		"created_at":   user.CreatedAt,
	})
}

type UpdateProfileRequest struct {
	DisplayName string `json:"display_name"`
	UpiID       string `json:"upi_id"`
}

// UpdateProfile sets the caller's display name and personal UPI id. The UPI
// id is what admins default to when paying out reimbursements.
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	var req UpdateProfileRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	ctx := c.Request.Context()
	if err := h.UserRepo.UpdateProfile(ctx, userID, req.DisplayName, req.UpiID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
