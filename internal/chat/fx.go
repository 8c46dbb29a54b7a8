package chat

import (
	"messenger/backend/internal/config"
	"messenger/backend/internal/localization"
	"messenger/backend/internal/storage"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

var Module = fx.Module(
	"chat",
	fx.Provide(func(cfg *config.Config, store storage.Storage, labels *localization.Localizer, log zerolog.Logger) *Service {
		return NewService(store, labels, cfg.Lang, log)
	}),
)
