package middleware

import (
	"net/http"
	"strings"
	"time"

	"handle-ledger/internal/core/ports"
	"handle-ledger/pkg/apperror"
	"handle-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// HeaderRequestID is echoed back on every response.
	HeaderRequestID = "X-Request-ID"

	// Context keys
	CtxPrincipalID = "principal_id"
	CtxPrivileged  = "privileged"

	maxRequestIDLength = 128
)

// JWTAuth validates the bearer token and stores the caller's principal id
// and admin flag in the gin context.
func JWTAuth(tokenSvc ports.TokenService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenStr == "" {
			response.Abort(c, apperror.ErrUnauthenticated())
			return
		}

		claims, err := tokenSvc.Validate(tokenStr)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("token rejected")
			response.Abort(c, apperror.ErrUnauthenticated())
			return
		}

		c.Set(CtxPrincipalID, claims.PrincipalID)
		c.Set(CtxPrivileged, claims.Privileged)
		c.Next()
	}
}

// PrincipalID returns the authenticated caller, or "" outside JWTAuth.
func PrincipalID(c *gin.Context) string {
	return c.GetString(CtxPrincipalID)
}

// Privileged reports whether the caller's token carries the admin claim.
func Privileged(c *gin.Context) bool {
	return c.GetBool(CtxPrivileged)
}

// RequestID reuses a sane inbound X-Request-ID or generates one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set(response.RequestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(response.RequestIDKey)).
			Str("principal_id", PrincipalID(c)).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				response.Abort(c, apperror.InternalError(nil))
			}
		}()
		c.Next()
	}
}
