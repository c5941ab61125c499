package handler

import (
	"time"

	"handle-ledger/internal/adapter/http/dto"
	"handle-ledger/internal/adapter/http/middleware"
	"handle-ledger/internal/core/ports"
	"handle-ledger/pkg/apperror"
	"handle-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// AccountHandler handles account bootstrap, balance view and username claims.
type AccountHandler struct {
	accountSvc   ports.AccountService
	directorySvc ports.DirectoryService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc ports.AccountService, directorySvc ports.DirectoryService) *AccountHandler {
	return &AccountHandler{
		accountSvc:   accountSvc,
		directorySvc: directorySvc,
	}
}

// EnsureAccount handles POST /api/v1/accounts. It answers 201 when this call
// created the account and 200 when it already existed.
func (h *AccountHandler) EnsureAccount(c *gin.Context) {
	principalID := middleware.PrincipalID(c)
	if principalID == "" {
		response.Error(c, apperror.ErrUnauthenticated())
		return
	}

	_, created, err := h.accountSvc.EnsureAccount(c.Request.Context(), principalID)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.accountSvc.GetAccount(c.Request.Context(), principalID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Set(middleware.CtxResourceID, principalID)

	if created {
		response.Created(c, toAccountResponse(view))
		return
	}
	response.OK(c, toAccountResponse(view))
}

// GetAccount handles GET /api/v1/accounts/me.
func (h *AccountHandler) GetAccount(c *gin.Context) {
	principalID := middleware.PrincipalID(c)
	if principalID == "" {
		response.Error(c, apperror.ErrUnauthenticated())
		return
	}

	view, err := h.accountSvc.GetAccount(c.Request.Context(), principalID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toAccountResponse(view))
}

// ClaimUsername handles PUT /api/v1/accounts/me/username.
func (h *AccountHandler) ClaimUsername(c *gin.Context) {
	principalID := middleware.PrincipalID(c)
	if principalID == "" {
		response.Error(c, apperror.ErrUnauthenticated())
		return
	}

	var req dto.ClaimUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.InvalidArgument(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	handle, err := h.directorySvc.ClaimUsername(c.Request.Context(), principalID, req.Username)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Set(middleware.CtxResourceID, handle)

	response.OK(c, dto.ClaimUsernameResponse{Username: handle})
}

func toAccountResponse(view *ports.AccountView) dto.AccountResponse {
	return dto.AccountResponse{
		AccountID: view.Account.ID,
		Username:  view.Handle,
		Balance:   view.Account.Balance,
		Currency:  view.Currency,
		CreatedAt: view.Account.CreatedAt.Format(time.RFC3339),
	}
}
