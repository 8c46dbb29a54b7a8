package handler

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"messenger/backend/internal/apperrors"
	"messenger/backend/internal/config"

	"github.com/gin-gonic/gin"
)

// AuthRequired перевіряє Bearer токен і кладе userID у контекст
func (h *Handler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Требуется авторизация"})
			return
		}

		userID, err := h.Tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperrors.Message(err, "Недействительный токен")})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// InternalOnly пропускає лише запити з правильним X-Internal-Secret.
// Порожній секрет у конфігурації закриває ендпоінт повністю.
func (h *Handler) InternalOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := h.Config.InternalSecret
		got := c.GetHeader(config.InternalSecretHeader)
		if expected == "" || subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
			h.log.Warn().Str("ip", c.ClientIP()).Msg("rejected internal call")
			h.respondError(c, apperrors.ErrBadInternalSecret)
			return
		}
		c.Next()
	}
}

func (h *Handler) RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		h.Metrics.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		h.Metrics.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// RequestLogger пише access log через zerolog замість стандартного gin логера
func (h *Handler) RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := h.log.Debug()
		if status >= http.StatusInternalServerError {
			event = h.log.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
