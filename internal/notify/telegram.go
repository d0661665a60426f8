package notify

import (
	"context"
	"strconv"

	"homeservices/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender posts staff alerts to one chat. The recipient in Message is ignored.
type TelegramSender struct {
	bot    domain.TelegramSender
	chatID int64
}

func NewTelegramSender(bot domain.TelegramSender, chatID int64) *TelegramSender {
	return &TelegramSender{bot: bot, chatID: chatID}
}

func (s *TelegramSender) Channel() Channel { return ChannelTelegram }

func (s *TelegramSender) Enabled() bool {
	return s.bot != nil && s.chatID != 0
}

func (s *TelegramSender) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out := tgbotapi.NewMessage(s.chatID, msg.Text)
	out.DisableWebPagePreview = true
	sent, err := s.bot.Send(out)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(sent.MessageID), nil
}
