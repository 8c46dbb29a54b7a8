package handler

import (
	"errors"
	"net/http"

	"messenger/backend/internal/apperrors"

	"github.com/gin-gonic/gin"
)

const internalErrorMessage = "Внутренняя ошибка сервера"

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps err to a status; storage details never reach the client.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	message := apperrors.Message(err, internalErrorMessage)
	if status == http.StatusInternalServerError {
		message = internalErrorMessage
		h.log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "message": message})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"ok": false, "message": message})
}

func respondOK(c *gin.Context, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["ok"] = true
	c.JSON(http.StatusOK, body)
}
