package notifications

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// TelegramSender пушит текст в личный чат пользователя.
type TelegramSender struct {
	bot *telego.Bot
}

func NewTelegramSender(token string) (*TelegramSender, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать Telegram-бота: %w", err)
	}
	return &TelegramSender{bot: bot}, nil
}

func (s *TelegramSender) SendText(ctx context.Context, chatID int64, text string) error {
	msg := tu.Message(tu.ID(chatID), text).WithParseMode(telego.ModeHTML)
	if _, err := s.bot.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	return nil
}
