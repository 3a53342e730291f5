package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/ivankudzin/automarket/backend/internal/domain/model"
)

// Telegram allows about 30 messages per second per bot.
const defaultSendRate = 25

type Bot struct {
	api     *tgbotapi.BotAPI
	limiter *rate.Limiter
}

func NewBot(token string, perSecond float64) (*Bot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}

	api, err := tgbotapi.NewBotAPI(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}

	if perSecond <= 0 {
		perSecond = defaultSendRate
	}

	return &Bot{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}, nil
}

func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if chatID == 0 {
		return fmt.Errorf("chat id is required")
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for send slot: %w", err)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

func (b *Bot) SendNotification(ctx context.Context, chatID int64, n model.Notification) error {
	return b.SendText(ctx, chatID, FormatNotification(n))
}

func FormatNotification(n model.Notification) string {
	title := strings.TrimSpace(n.Title)
	message := strings.TrimSpace(n.Message)
	switch {
	case title == "":
		return message
	case message == "":
		return title
	}
	return title + "\n\n" + message
}
