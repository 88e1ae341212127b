package http

import (
	"time"

	"splitfund/internal/config"
	"splitfund/internal/http/handlers"
	"splitfund/internal/http/middleware"
	"splitfund/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// RegisterRoutes wires the full API surface: auth, rooms, the transaction
// ledger, fund snapshots and the websocket fund feed.
func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, version string, cfg *config.Config) {
	h := newHandler(db, cfg)
	healthHandler := handlers.NewHealthHandler(db, version)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	// Per-IP limiter: shared fixed window in Redis when configured,
	// otherwise the in-process fallback.
	apiRL := middleware.RedisRateLimit(cfg.APIRateLimit, cfg.APIRateWindow)
	if cfg.RedisAddr == "" {
		apiRL = middleware.SimpleRateLimit(cfg.APIRateLimit, cfg.APIRateWindow)
	}

	v1 := r.Group("/api/v1")
	v1.Use(apiRL)
	registerAPIRoutes(v1, h, cfg.WriteRateLimit, cfg.WriteRateWindow)

	// Websocket fund feed; snapshots reconciled by the ledger are pushed to
	// the room's subscribers.
	hub := ws.NewHub()
	h.Ledger.OnSnapshot = hub.BroadcastSnapshot
	r.GET("/ws/funds", ws.HandleWS(hub, h.Rooms))
}

func newHandler(db *pgxpool.Pool, cfg *config.Config) *handlers.Handler {
	maxAmount, err := decimal.NewFromString(cfg.MaxTransactionAmount)
	if err != nil {
		maxAmount = decimal.Zero
	}
	return handlers.NewHandlerWithConfig(db, cfg.ProviderSecret, handlers.HandlerConfig{
		MaxTransactionAmount: maxAmount,
	})
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, writeRateLimit int, writeRateWindow time.Duration) {
	// Auth
	api.POST("/auth", h.Auth)

	// User profile
	api.GET("/me", middleware.JWT(), h.Me)
	api.PATCH("/me", middleware.JWT(), h.UpdateProfile)

	// Rooms and membership
	api.POST("/rooms", middleware.JWT(), h.CreateRoom)
	api.POST("/rooms/join", middleware.JWT(), h.JoinRoom)
	api.GET("/rooms", middleware.JWT(), h.MyRooms)
	api.GET("/rooms/:room_id", middleware.JWT(), h.GetRoom)
	api.GET("/rooms/:room_id/members", middleware.JWT(), h.RoomMembers)
	api.GET("/rooms/:room_id/audit", middleware.JWT(), h.RoomAudit)

	// Write rate limiter (per user, not per IP)
	writeRL := middleware.WriteRateLimit(writeRateLimit, writeRateWindow)

	// Ledger
	api.POST("/rooms/:room_id/transactions", middleware.JWT(), writeRL, h.SubmitTransaction)
	api.GET("/rooms/:room_id/transactions", middleware.JWT(), h.ListTransactions)
	api.POST("/rooms/:room_id/transactions/:txn_id/resolve", middleware.JWT(), writeRL, h.ResolveTransaction)
	api.POST("/rooms/:room_id/transactions/:txn_id/reimburse", middleware.JWT(), writeRL, h.MarkReimbursed)

	// Fund snapshot
	api.GET("/rooms/:room_id/fund", middleware.JWT(), h.RoomFund)
}
