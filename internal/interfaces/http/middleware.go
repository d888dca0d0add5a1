package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/garyjia/clinic-invoice/internal/application/port"
	"github.com/garyjia/clinic-invoice/internal/domain/entity"
)

// Context keys set by the middleware
const (
	requestIDKey = "requestID"
	sessionKey   = "session"
	ownerIDKey   = "ownerID"

	requestIDHeader = "X-Request-ID"
)

// requestIDMiddleware propagates X-Request-ID, minting one when absent
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// authMiddleware turns a bearer access token into the signed-in session
func authMiddleware(verifier port.SessionVerifier, logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			abort(c, http.StatusUnauthorized, "invalid authorization header format, expected 'Bearer <token>'")
			return
		}

		session, err := verifier.Verify(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			logger.Info("Rejected access token", "request_id", c.GetString(requestIDKey), "error", err)
			abort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		c.Set(sessionKey, *session)
		c.Set(ownerIDKey, session.OwnerID)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) entity.Session {
	v, _ := c.Get(sessionKey)
	session, _ := v.(entity.Session)
	return session
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{
		Success: false,
		Error:   message,
	})
}

// corsMiddleware adds CORS headers for the browser editor
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Archive-Location, X-Archive-Error, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
