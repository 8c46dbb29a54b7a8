// Package app contains application bootstrap
package app

import (
	"messenger/backend/internal/api/handler"
	"messenger/backend/internal/auth"
	"messenger/backend/internal/chat"
	"messenger/backend/internal/chathub"
	"messenger/backend/internal/config"
	"messenger/backend/internal/localization"
	"messenger/backend/internal/logger"
	"messenger/backend/internal/metrics"
	"messenger/backend/internal/storage"
	"messenger/backend/internal/telegram"

	"go.uber.org/fx"
)

// CreateApp creates fx application with all modules
func CreateApp() fx.Option {
	return fx.Options(
		fx.Provide(config.Load),
		fx.Provide(metrics.Default),
		fx.Provide(localization.NewLocalizer),

		logger.Module,
		storage.Module,
		telegram.Module,
		auth.Module,
		chat.Module,
		chathub.Module,
		handler.Module,
	)
}
