package handlers

import (
	"net/http"
	"strconv"

	"splitfund/internal/domain"
	"splitfund/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type SubmitTransactionRequest struct {
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	Notes         string `json:"notes"`
	MerchantUpiID string `json:"merchant_upi_id"`
}

// SubmitTransaction records a member's contribution or reimbursement request.
// Amounts travel as strings to keep decimal precision on the wire.
func (h *Handler) SubmitTransaction(c *gin.Context) {
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

	var req SubmitTransactionRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	ctx := c.Request.Context()
	txn, err := h.Ledger.Submit(ctx, service.SubmitInput{
		RoomID:        roomID,
		UserID:        userID,
		Type:          domain.TransactionType(req.Type),
		Amount:        amount,
		Notes:         req.Notes,
		MerchantUpiID: req.MerchantUpiID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.Audit.LogSubmit(ctx, userID, roomID, txn.Type, txn.ID, txn.Amount)

	c.JSON(http.StatusCreated, txn)
}

// ListTransactions returns the room's transactions, newest first. Supports
// an optional ?status=PENDING|CONFIRMED|REJECTED filter.
func (h *Handler) ListTransactions(c *gin.Context) {
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

	status := domain.TransactionStatus(c.Query("status"))
	txns, err := h.Ledger.List(c.Request.Context(), roomID, userID, status)
	if err != nil {
		respondError(c, err)
		return
	}
	if txns == nil {
		txns = []domain.Transaction{}
	}

	c.JSON(http.StatusOK, gin.H{"transactions": txns})
}

type ResolveRequest struct {
	Decision string `json:"decision"`
}

// ResolveTransaction applies the admin's CONFIRMED or REJECTED decision to a
// pending transaction.
func (h *Handler) ResolveTransaction(c *gin.Context) {
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
	txnID, err := parseTxnID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction id"})
		return
	}

	var req ResolveRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	ctx := c.Request.Context()
	decision := domain.TransactionStatus(req.Decision)
	txn, err := h.Ledger.Resolve(ctx, roomID, userID, txnID, decision)
	if err != nil {
		respondError(c, err)
		return
	}

	h.Audit.LogResolve(ctx, userID, roomID, txnID, decision)

	c.JSON(http.StatusOK, txn)
}

type ReimburseRequest struct {
	MemberUpiID string `json:"member_upi_id"`
}

// MarkReimbursed pays out a confirmed reimbursement and returns both the
// updated original and the payment record created for it.
func (h *Handler) MarkReimbursed(c *gin.Context) {
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
	txnID, err := parseTxnID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction id"})
		return
	}

	var req ReimburseRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	ctx := c.Request.Context()
	original, payment, err := h.Ledger.MarkReimbursed(ctx, roomID, userID, txnID, req.MemberUpiID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.Audit.LogMarkReimbursed(ctx, userID, roomID, original.ID, payment.ID, req.MemberUpiID)

	c.JSON(http.StatusOK, gin.H{
		"transaction": original,
		"payment":     payment,
	})
}

func parseTxnID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("txn_id"), 10, 64)
}
