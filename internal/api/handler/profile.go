package handler

import (
	"messenger/backend/internal/chat"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetMe(c *gin.Context) {
	user, err := h.Chats.GetProfile(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"user": user})
}

// UpdateMe змінює лише передані поля
func (h *Handler) UpdateMe(c *gin.Context) {
	var upd chat.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, "Некорректный запрос")
		return
	}

	user, err := h.Chats.UpdateProfile(c.Request.Context(), currentUserID(c), upd)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"user": user})
}

func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.Chats.FindByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"user": user.Public()})
}
