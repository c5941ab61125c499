package handler

import (
	"handle-ledger/internal/adapter/http/middleware"
	"handle-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AccountSvc     ports.AccountService
	DirectorySvc   ports.DirectoryService
	LedgerSvc      ports.LedgerService
	QuerySvc       ports.TransactionQueryService
	TokenSvc       ports.TokenService
	AuditSvc       ports.AuditService // nil = audit logging disabled
	HealthCheckers []ports.HealthChecker
	OpenAPISpec    []byte // nil = /swagger/spec answers 404
	Mode           string // gin mode; empty = release
	MaxBodyBytes   int64
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	mode := deps.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
	r := gin.New()

	maxBody := deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxBody))

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	// Health check (deep: storage and Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	swaggerHandler := NewSwaggerHandler(deps.OpenAPISpec)
	swagger := r.Group("/swagger")
	{
		swagger.GET("", swaggerHandler.UI)
		swagger.GET("/spec", swaggerHandler.Spec)
	}

	// API v1 routes, all JWT-authenticated
	v1 := r.Group("/api/v1", middleware.JWTAuth(deps.TokenSvc, deps.Logger))

	accountHandler := NewAccountHandler(deps.AccountSvc, deps.DirectorySvc)
	accounts := v1.Group("/accounts")
	{
		accounts.POST("", accountHandler.EnsureAccount)
		accounts.GET("/me", accountHandler.GetAccount)
		accounts.PUT("/me/username", accountHandler.ClaimUsername)
	}

	transferHandler := NewTransferHandler(deps.LedgerSvc)
	v1.POST("/transfers", transferHandler.Transfer)

	adminHandler := NewAdminHandler(deps.QuerySvc)
	admin := v1.Group("/admin")
	{
		admin.GET("/transactions", adminHandler.ListTransactions)
	}

	return r
}
