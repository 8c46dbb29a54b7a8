package auth

import (
	"messenger/backend/internal/config"
	"messenger/backend/internal/metrics"
	"messenger/backend/internal/storage"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

var Module = fx.Module(
	"auth",
	fx.Provide(
		func(s storage.Storage) UserRepository { return s },
		func(cfg *config.Config) *TokenIssuer { return NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL) },
		provideCodeService,
		NewQrService,
	),
)

// provideCodeService: debug-коди лише поза продакшеном
func provideCodeService(cfg *config.Config, store storage.Ephemeral, users UserRepository, sender CodeSender, m *metrics.Metrics, log zerolog.Logger) *CodeService {
	return NewCodeService(store, users, sender, !cfg.IsProduction(), log, WithMetrics(m))
}
