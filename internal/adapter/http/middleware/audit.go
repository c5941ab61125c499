package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"handle-ledger/internal/core/domain"
	"handle-ledger/internal/core/ports"
	"handle-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog creates an audit middleware that logs successful write operations.
// It maps HTTP methods and routes to audit actions.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only audit successful write operations (status 2xx)
		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}
		if c.GetBool(CtxAuditSkip) {
			return
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		action, resourceType := mapPathToAction(path, c.Request.Method)
		if action == "" {
			return
		}

		details, _ := json.Marshal(map[string]any{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"request_id": c.GetString(response.RequestIDKey),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			PrincipalID:  PrincipalID(c),
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   c.GetString(CtxResourceID),
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now(),
		})
	}
}

const (
	// CtxResourceID lets a handler name the entity an audited write touched.
	CtxResourceID = "audit_resource_id"
	// CtxAuditSkip marks a successful write that changed nothing, such as a
	// replayed transfer.
	CtxAuditSkip = "audit_skip"
)

func mapPathToAction(path, method string) (domain.AuditAction, string) {
	switch {
	case path == "/api/v1/accounts" && method == http.MethodPost:
		return domain.AuditActionEnsureAccount, "account"
	case path == "/api/v1/accounts/me/username" && method == http.MethodPut:
		return domain.AuditActionClaimUsername, "handle"
	case path == "/api/v1/transfers" && method == http.MethodPost:
		return domain.AuditActionTransfer, "transaction"
	}
	return "", ""
}
