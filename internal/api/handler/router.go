package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.RequestLogger(), h.RequestMetrics())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Роути
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/request-code", h.RequestCode)
		authGroup.POST("/verify-code", h.VerifyCode)
		authGroup.POST("/qr/request", h.RequestQr)
		authGroup.GET("/qr/check", h.CheckQr)
		authGroup.POST("/qr/confirm", h.AuthRequired(), h.ConfirmQr)
	}

	r.POST("/internal/link-channel", h.InternalOnly(), h.LinkChannel)

	api := r.Group("/", h.AuthRequired())
	{
		api.GET("/chats", h.ListChats)
		api.POST("/chats", h.CreateChat)
		api.GET("/chats/:id/messages", h.ListMessages)
		api.POST("/chats/:id/messages", h.SendMessage)

		api.GET("/me", h.GetMe)
		api.PATCH("/me", h.UpdateMe)
		api.GET("/users/:username", h.GetUser)
	}

	r.GET("/ws", h.ServeWebSocket) // WebSocket Upgrade

	return r
}
