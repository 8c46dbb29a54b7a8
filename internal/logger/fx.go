package logger

import (
	"messenger/backend/internal/config"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

var Module = fx.Module(
	"logger",
	fx.Provide(NewLogger),
)

func NewLogger(cfg *config.Config) zerolog.Logger {
	return New(cfg.LogLevel, !cfg.IsProduction())
}
