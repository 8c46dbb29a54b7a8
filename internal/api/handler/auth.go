package handler

import (
	"encoding/json"

	"messenger/backend/internal/auth"
	"messenger/backend/internal/config"

	"github.com/gin-gonic/gin"
)

type requestCodeBody struct {
	Phone string `json:"phone"`
}

type verifyCodeBody struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type qrConfirmBody struct {
	Code string `json:"code"`
}

type linkChannelBody struct {
	Phone          string      `json:"phone"`
	ExternalChatID json.Number `json:"externalChatId"`
}

// RequestCode видає код підтвердження на телефон
func (h *Handler) RequestCode(c *gin.Context) {
	var body requestCodeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Некорректный запрос")
		return
	}

	res, err := h.Codes.RequestCode(c.Request.Context(), body.Phone)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := gin.H{
		"phone":      res.Phone,
		"ttlSeconds": res.TTLSeconds,
		"delivered":  res.Delivered,
	}
	if res.DebugCode != "" {
		resp["debugCode"] = res.DebugCode
	}
	respondOK(c, resp)
}

// VerifyCode обмінює код на токен сесії
func (h *Handler) VerifyCode(c *gin.Context) {
	var body verifyCodeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Некорректный запрос")
		return
	}

	user, err := h.Codes.VerifyCode(c.Request.Context(), body.Phone, body.Code)
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, gin.H{"token": token, "user": user})
}

func (h *Handler) RequestQr(c *gin.Context) {
	session, err := h.Qr.RequestSession(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{
		"code":       session.Code,
		"ttlSeconds": session.TTLSeconds,
		"payload":    session.Payload,
		"qrImage":    session.Image,
	})
}

// CheckQr опитує стан QR-сесії; токен видається лише один раз
func (h *Handler) CheckQr(c *gin.Context) {
	poll, err := h.Qr.PollSession(c.Request.Context(), c.Query("code"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := gin.H{"status": poll.Status}
	if poll.Status == auth.QrStatusReady {
		resp["token"] = poll.Token
		if poll.User != nil {
			resp["user"] = poll.User
		}
	}
	respondOK(c, resp)
}

func (h *Handler) ConfirmQr(c *gin.Context) {
	var body qrConfirmBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Некорректный запрос")
		return
	}

	if err := h.Qr.ConfirmSession(c.Request.Context(), body.Code, currentUserID(c)); err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// LinkChannel прив'язує телефон до Telegram-чату; викликається ботом або адмінкою
func (h *Handler) LinkChannel(c *gin.Context) {
	var body linkChannelBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Некорректный запрос")
		return
	}

	phone, err := auth.NormalizePhone(body.Phone)
	if err != nil {
		h.respondError(c, err)
		return
	}
	chatID, err := body.ExternalChatID.Int64()
	if err != nil || chatID == 0 {
		badRequest(c, "Некорректный externalChatId")
		return
	}

	if err := h.Links.LinkTelegram(c.Request.Context(), phone, chatID, config.TelegramLinkTTL); err != nil {
		h.respondError(c, err)
		return
	}

	h.log.Info().Str("phone", auth.MaskPhone(phone)).Int64("chat_id", chatID).Msg("telegram link registered")
	respondOK(c, gin.H{"phone": auth.MaskPhone(phone)})
}
