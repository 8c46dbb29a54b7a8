package handler

import (
	"messenger/backend/internal/chat"
	"messenger/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type sendMessageBody struct {
	Text       string             `json:"text"`
	Attachment *models.Attachment `json:"attachment"`
}

func (h *Handler) ListChats(c *gin.Context) {
	chats, err := h.Chats.ListChats(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"chats": chats})
}

func (h *Handler) CreateChat(c *gin.Context) {
	var in chat.CreateChatInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Некорректный запрос")
		return
	}

	created, err := h.Chats.CreateChat(c.Request.Context(), currentUserID(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"chat": created})
}

func (h *Handler) ListMessages(c *gin.Context) {
	messages, err := h.Chats.ListMessages(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"messages": messages})
}

func (h *Handler) SendMessage(c *gin.Context) {
	var body sendMessageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Некорректный запрос")
		return
	}

	msg, err := h.Chats.SendMessage(c.Request.Context(), currentUserID(c), c.Param("id"), body.Text, body.Attachment)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": msg})
}
