package telegram

import (
	"context"
	"fmt"

	"messenger/backend/internal/localization"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// CodeSender реалізує auth.CodeSender поверх Bot API
type CodeSender struct {
	api    sender
	labels *localization.Localizer
	lang   string
}

func NewCodeSender(api sender, labels *localization.Localizer, lang string) *CodeSender {
	return &CodeSender{api: api, labels: labels, lang: lang}
}

func (c *CodeSender) SendCode(ctx context.Context, chatID int64, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if chatID == 0 {
		return fmt.Errorf("telegram: empty chat id")
	}

	// код у моноширинному блоці, щоб легко копіювати
	text := c.labels.Format(c.lang, "code_message", "<code>"+code+"</code>")
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML

	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
