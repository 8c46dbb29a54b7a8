package telegram

import (
	"context"

	"messenger/backend/internal/auth"
	"messenger/backend/internal/config"
	"messenger/backend/internal/localization"
	"messenger/backend/internal/storage"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Module provides the bot and the code sender. Both are nil when
// TELEGRAM_BOT_TOKEN is empty.
var Module = fx.Module(
	"telegram",
	fx.Provide(provideBot, provideCodeSender),
	fx.Invoke(registerLifecycle),
)

func provideBot(cfg *config.Config, store storage.Ephemeral, labels *localization.Localizer, log zerolog.Logger) (*BotService, error) {
	if cfg.TelegramBotToken == "" {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN is empty, telegram delivery disabled")
		return nil, nil
	}
	return NewBotService(cfg.TelegramBotToken, store, labels, cfg.Lang, log)
}

func provideCodeSender(bot *BotService) auth.CodeSender {
	if bot == nil {
		return nil
	}
	return bot.CodeSender()
}

func registerLifecycle(lc fx.Lifecycle, bot *BotService) {
	if bot == nil {
		return
	}
	var cancel context.CancelFunc

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())
			go bot.Run(ctx)
			return nil
		},
		OnStop: func(_ context.Context) error {
			if cancel != nil {
				cancel()
			}
			bot.Stop()
			return nil
		},
	})
}
