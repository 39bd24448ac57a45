package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fruitbox/internal/domain"
	"fruitbox/internal/session"
)

const sessionRecordKey = "session_record"

// SessionAuthMiddleware resuelve la cookie de sesion contra el store
// compartido. Distingue "no logueado" (401) de "backend de sesiones caido"
// (503): sin store no hay identidad de respaldo.
func SessionAuthMiddleware(logger *zap.Logger, store session.Store, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || strings.TrimSpace(token) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not logged in"})
			c.Abort()
			return
		}

		record, err := store.Get(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not logged in"})
				c.Abort()
				return
			}
			logger.Error("session lookup failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "auth backend unavailable"})
			c.Abort()
			return
		}

		c.Set(sessionRecordKey, record)
		c.Next()
	}
}

// GetSessionRecord obtiene el registro de sesion desde el contexto.
func GetSessionRecord(c *gin.Context) (domain.SessionRecord, bool) {
	val, ok := c.Get(sessionRecordKey)
	if !ok {
		return domain.SessionRecord{}, false
	}
	record, ok := val.(domain.SessionRecord)
	return record, ok
}

