package watch

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"golang.org/x/time/rate"

	"flood-geoservice/internal/models"
)

// TelegramPublisher sends new alerts to a configured chat, rate-limited so a
// large flood event cannot trip Telegram's API limits.
type TelegramPublisher struct {
	bot     *bot.Bot
	chatID  int64
	limiter *rate.Limiter
}

func NewTelegramPublisher(token string, chatID int64, ratePerSecond int) (*TelegramPublisher, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	return &TelegramPublisher{
		bot:     b,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Limit(float64(ratePerSecond)), ratePerSecond),
	}, nil
}

func (p *TelegramPublisher) Publish(ctx context.Context, alert models.Alert) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram rate limit exceeded: %w", err)
	}

	text := fmt.Sprintf(
		"*%s*\n%s\n\n"+
			"*Severity:* %s\n"+
			"*Effective:* %s\n"+
			"*Expires:* %s",
		alert.Info.Headline,
		alert.Info.Description,
		alert.Info.Severity,
		alert.Info.Effective,
		alert.Info.Expires,
	)

	params := &bot.SendMessageParams{
		ChatID:    p.chatID,
		Text:      text,
		ParseMode: "Markdown",
	}
	if _, err := p.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("failed to send Telegram message to chat_id %d: %w", p.chatID, err)
	}
	return nil
}

func (p *TelegramPublisher) Name() string { return "telegram" }
