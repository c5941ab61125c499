package handler

import (
	"handle-ledger/internal/adapter/http/dto"
	"handle-ledger/internal/adapter/http/middleware"
	"handle-ledger/internal/core/ports"
	"handle-ledger/pkg/apperror"
	"handle-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves privileged reads.
type AdminHandler struct {
	querySvc ports.TransactionQueryService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(querySvc ports.TransactionQueryService) *AdminHandler {
	return &AdminHandler{querySvc: querySvc}
}

// ListTransactions handles GET /api/v1/admin/transactions?limit=N.
// Entries are returned newest first.
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	var q dto.ListTransactionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.InvalidArgument("limit must be a non-negative integer"))
		return
	}

	entries, err := h.querySvc.ListTransactions(c.Request.Context(), q.Limit, middleware.Privileged(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, len(entries))
	for i := range entries {
		items[i] = toTransactionResponse(&entries[i])
	}

	response.OK(c, dto.TransactionListResponse{
		Items: items,
		Count: len(items),
	})
}
