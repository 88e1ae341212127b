package handlers

import (
	"net/http"

	"splitfund/internal/domain"
	"splitfund/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	Assertion string `json:"assertion"`
}

// Auth exchanges a signed identity assertion from the auth provider for an
// API token, creating the user on first login.
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	if len(req.Assertion) > 4096 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "assertion too long"})
		return
	}

	values, ok := service.ValidateIdentityAssertion(req.Assertion, h.ProviderSecret)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or stale identity assertion"})
		return
	}

	ctx := c.Request.Context()
	providerID := values.Get("sub")

	user, err := h.UserRepo.GetByProviderID(ctx, providerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}
	if user == nil {
		user = &domain.User{
			ProviderID:  providerID,
			Username:    values.Get("username"),
			DisplayName: values.Get("display_name"),
		}
		if err := h.UserRepo.Create(ctx, user); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
			return
		}
	}

	token, err := service.GenerateJWT(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	h.Audit.Log(ctx, user.ID, 0, domain.AuditActionLogin, domain.AuditCategoryAuth, map[string]interface{}{
		"provider_id": providerID,
	})

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":           user.ID,
			"provider_id":  user.ProviderID,
			"username":     user.Username,
			"display_name": user.DisplayName,
		},
	})
}
