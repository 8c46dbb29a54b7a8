package handler

import (
	"messenger/backend/internal/auth"
	"messenger/backend/internal/chat"
	"messenger/backend/internal/chathub"
	"messenger/backend/internal/config"
	"messenger/backend/internal/metrics"
	"messenger/backend/internal/storage"

	"github.com/rs/zerolog"
)

const userIDKey = "userID"

// Handler містить посилання на сервіси, які обслуговують HTTP та WebSocket
type Handler struct {
	Hub     *chathub.ManagerService
	Codes   *auth.CodeService
	Qr      *auth.QrService
	Tokens  *auth.TokenIssuer
	Chats   *chat.Service
	Links   storage.Ephemeral
	Config  *config.Config
	Metrics *metrics.Metrics

	log zerolog.Logger
}

func NewHandler(
	hub *chathub.ManagerService,
	codes *auth.CodeService,
	qr *auth.QrService,
	tokens *auth.TokenIssuer,
	chats *chat.Service,
	links storage.Ephemeral,
	cfg *config.Config,
	m *metrics.Metrics,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		Hub:     hub,
		Codes:   codes,
		Qr:      qr,
		Tokens:  tokens,
		Chats:   chats,
		Links:   links,
		Config:  cfg,
		Metrics: m,
		log:     log.With().Str("component", "http").Logger(),
	}
}
