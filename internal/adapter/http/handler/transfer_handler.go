package handler

import (
	"time"

	"handle-ledger/internal/adapter/http/dto"
	"handle-ledger/internal/adapter/http/middleware"
	"handle-ledger/internal/core/domain"
	"handle-ledger/internal/core/ports"
	"handle-ledger/pkg/apperror"
	"handle-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// IdempotentReplayedHeader marks a response served from an earlier transfer.
const IdempotentReplayedHeader = "Idempotent-Replayed"

// TransferHandler handles fund transfers between handles.
type TransferHandler struct {
	ledgerSvc ports.LedgerService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(ledgerSvc ports.LedgerService) *TransferHandler {
	return &TransferHandler{ledgerSvc: ledgerSvc}
}

// Transfer handles POST /api/v1/transfers.
// A replayed Idempotency-Key returns the original entry with 201 and an
// Idempotent-Replayed header, and is not audited a second time.
func (h *TransferHandler) Transfer(c *gin.Context) {
	principalID := middleware.PrincipalID(c)
	if principalID == "" {
		response.Error(c, apperror.ErrUnauthenticated())
		return
	}

	var headers dto.TransferHeaders
	if err := c.ShouldBindHeader(&headers); err != nil {
		response.Error(c, apperror.InvalidArgument("invalid Idempotency-Key header"))
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.InvalidArgument(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.ledgerSvc.Transfer(c.Request.Context(), ports.TransferRequest{
		InitiatorID:       principalID,
		DestinationHandle: req.ToUsername,
		Amount:            *req.Amount,
		IdempotencyKey:    headers.IdempotencyKey,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Set(middleware.CtxResourceID, result.ID.String())
	if result.Replayed {
		c.Set(middleware.CtxAuditSkip, true)
		c.Header(IdempotentReplayedHeader, "true")
	}

	response.Created(c, toTransactionResponse(result.TransactionEntry))
}

func toTransactionResponse(tx *domain.TransactionEntry) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:            tx.ID.String(),
		FromAccountID: tx.FromAccountID,
		ToAccountID:   tx.ToAccountID,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		Status:        string(tx.Status),
		InitiatedBy:   tx.InitiatedBy,
		CreatedAt:     tx.CreatedAt.Format(time.RFC3339Nano),
	}
}
