package handlers

import (
	"errors"
	"net/http"

	"splitfund/internal/domain"
	"splitfund/internal/repository"
	"splitfund/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// HandlerConfig holds configuration for handler
type HandlerConfig struct {
	MaxTransactionAmount decimal.Decimal
}

type Handler struct {
	DB       *pgxpool.Pool
	UserRepo *repository.UserRepository
	Rooms    *service.RoomService
	Ledger   *service.LedgerService
	Audit    *service.AuditService

	ProviderSecret string
}

func NewHandler(db *pgxpool.Pool, providerSecret string) *Handler {
	roomRepo := repository.NewRoomRepository(db)
	ledger := service.NewLedgerService(
		roomRepo,
		repository.NewTransactionRepository(db),
		repository.NewFundRepository(db),
	)

	return &Handler{
		DB:             db,
		UserRepo:       repository.NewUserRepository(db),
		Rooms:          service.NewRoomService(db),
		Ledger:         ledger,
		Audit:          service.NewAuditService(db),
		ProviderSecret: providerSecret,
	}
}

// NewHandlerWithConfig creates a handler with custom configuration
func NewHandlerWithConfig(db *pgxpool.Pool, providerSecret string, cfg HandlerConfig) *Handler {
	h := NewHandler(db, providerSecret)
	if cfg.MaxTransactionAmount.IsPositive() {
		h.Ledger.SetMaxAmount(cfg.MaxTransactionAmount)
	}
	return h
}

// getUserID pulls the authenticated user id out of the gin context
func getUserID(c *gin.Context) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// respondError maps domain errors to HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
