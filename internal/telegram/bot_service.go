// Package telegram links phone numbers to Telegram chats and delivers login
// codes through the bot.
package telegram

import (
	"context"

	"messenger/backend/internal/localization"
	"messenger/backend/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// sender is the single Bot API call the handlers make.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BotService receives Telegram updates and maintains the phone links.
type BotService struct {
	BotAPI    *tgbotapi.BotAPI
	api       sender
	store     storage.Ephemeral
	Localizer *localization.Localizer
	lang      string
	log       zerolog.Logger
}

// NewBotService authorizes against the Bot API.
func NewBotService(token string, store storage.Ephemeral, labels *localization.Localizer, lang string, log zerolog.Logger) (*BotService, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	s := newBotService(bot, store, labels, lang, log)
	s.BotAPI = bot
	s.log.Info().Str("account", bot.Self.UserName).Msg("✅ Authorized on Telegram")
	return s, nil
}

func newBotService(api sender, store storage.Ephemeral, labels *localization.Localizer, lang string, log zerolog.Logger) *BotService {
	return &BotService{
		api:       api,
		store:     store,
		Localizer: labels,
		lang:      lang,
		log:       log.With().Str("component", "telegram").Logger(),
	}
}

// Run polls for updates until ctx is cancelled or Stop is called.
func (s *BotService) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.BotAPI.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			s.handleUpdate(ctx, update)
		}
	}
}

func (s *BotService) Stop() {
	if s.BotAPI != nil {
		s.BotAPI.StopReceivingUpdates()
	}
}

// CodeSender returns the login-code delivery bound to this bot.
func (s *BotService) CodeSender() *CodeSender {
	return NewCodeSender(s.api, s.Localizer, s.lang)
}

// languageFor prefers the client's Telegram language when we ship it.
func (s *BotService) languageFor(from *tgbotapi.User) string {
	if from != nil && from.LanguageCode != "" && s.Localizer.Has(from.LanguageCode) {
		return from.LanguageCode
	}
	return s.lang
}

func (s *BotService) reply(chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := s.api.Send(msg); err != nil {
		s.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send telegram message")
	}
}
