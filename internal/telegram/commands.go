package telegram

import (
	"context"

	"messenger/backend/internal/auth"
	"messenger/backend/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (s *BotService) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		return
	}

	switch {
	case msg.Contact != nil:
		s.handleContact(ctx, msg)
	case msg.IsCommand():
		s.handleCommand(ctx, msg)
	}
}

func (s *BotService) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	lang := s.languageFor(msg.From)

	switch msg.Command() {
	case "start":
		keyboard := tgbotapi.NewOneTimeReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButtonContact(s.Localizer.GetString(lang, "bot_share_button")),
			),
		)
		s.reply(chatID, s.Localizer.GetString(lang, "bot_start"), keyboard)

	case "stop":
		phone, linked, err := s.store.TelegramPhone(ctx, chatID)
		if err != nil {
			s.log.Error().Err(err).Int64("chat_id", chatID).Msg("telegram reverse lookup failed")
			s.reply(chatID, s.Localizer.GetString(lang, "bot_error"), nil)
			return
		}
		if linked {
			if err := s.store.UnlinkTelegram(ctx, phone); err != nil {
				s.log.Error().Err(err).Int64("chat_id", chatID).Msg("telegram unlink failed")
				s.reply(chatID, s.Localizer.GetString(lang, "bot_error"), nil)
				return
			}
			s.log.Info().Str("phone", auth.MaskPhone(phone)).Int64("chat_id", chatID).Msg("phone unlinked")
		}
		s.reply(chatID, s.Localizer.GetString(lang, "bot_unlinked"), tgbotapi.NewRemoveKeyboard(false))

	default:
		s.reply(chatID, s.Localizer.GetString(lang, "bot_help"), nil)
	}
}

// handleContact links the phone only when the user shares their own contact.
func (s *BotService) handleContact(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	lang := s.languageFor(msg.From)

	if msg.From == nil || msg.Contact.UserID != msg.From.ID {
		s.reply(chatID, s.Localizer.GetString(lang, "bot_foreign_contact"), nil)
		return
	}

	phone, err := auth.NormalizePhone(msg.Contact.PhoneNumber)
	if err != nil {
		s.reply(chatID, s.Localizer.GetString(lang, "bot_invalid_phone"), nil)
		return
	}

	if err := s.store.LinkTelegram(ctx, phone, chatID, config.TelegramLinkTTL); err != nil {
		s.log.Error().Err(err).Int64("chat_id", chatID).Msg("telegram link failed")
		s.reply(chatID, s.Localizer.GetString(lang, "bot_error"), nil)
		return
	}

	s.log.Info().Str("phone", auth.MaskPhone(phone)).Int64("chat_id", chatID).Msg("phone linked")
	s.reply(chatID, s.Localizer.Format(lang, "bot_linked", auth.MaskPhone(phone)), tgbotapi.NewRemoveKeyboard(false))
}
