package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ajuraforce/photo-product-analyzer/internal/bot"
	"github.com/ajuraforce/photo-product-analyzer/internal/images"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Client wraps the Bot API: it resolves file ids, sends replies and polls updates
type Client struct {
	api   *tgbotapi.BotAPI
	token string
}

// NewClient authenticates with token
func NewClient(token string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	slog.Info("Authorized on telegram", "username", api.Self.UserName)
	return &Client{api: api, token: token}, nil
}

// FileURL returns the direct download link for fileID
func (c *Client) FileURL(_ context.Context, fileID string) (string, error) {
	link, err := c.api.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("failed to get file info: %w", redactToken(err, c.token))
	}
	return link, nil
}

// Send posts a Markdown message, falling back to plain text when Telegram
// rejects the entities (model output can contain stray * or _).
func (c *Client) Send(_ context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := c.api.Send(msg); err == nil {
		return nil
	} else if !strings.Contains(err.Error(), "can't parse entities") {
		return fmt.Errorf("failed to send message: %w", redactToken(err, c.token))
	}

	msg.ParseMode = ""
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", redactToken(err, c.token))
	}
	return nil
}

// redactToken masks the bot token, which Bot API request URLs carry in their path
func redactToken(err error, token string) error {
	if err == nil || token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "<redacted>"))
}

// Run long-polls for updates and hands them to d until ctx is cancelled
func (c *Client) Run(ctx context.Context, d *Dispatcher) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.api.GetUpdatesChan(u)

	slog.Info("Polling for updates")
	for {
		select {
		case <-ctx.Done():
			c.api.StopReceivingUpdates()
			slog.Info("Stopped polling for updates")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			msg, ok := ToMessage(update)
			if !ok {
				continue
			}
			d.Dispatch(ctx, msg)
		}
	}
}

// ToMessage converts an update into a bot.Message; updates without a user message are skipped
func ToMessage(update tgbotapi.Update) (bot.Message, bool) {
	m := update.Message
	if m == nil || m.From == nil || m.Chat == nil {
		return bot.Message{}, false
	}

	msg := bot.Message{
		ChatID:   m.Chat.ID,
		UserID:   m.From.ID,
		UserName: displayName(m.From),
		Text:     m.Text,
		Caption:  m.Caption,
	}
	for _, p := range m.Photo {
		msg.Photos = append(msg.Photos, images.Candidate{
			FileID: p.FileID,
			Size:   int64(p.FileSize),
			Width:  p.Width,
			Height: p.Height,
		})
	}

	if len(msg.Photos) == 0 && strings.TrimSpace(msg.Text) == "" {
		return bot.Message{}, false
	}
	return msg, true
}

func displayName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	if name == "" {
		name = "Unknown"
	}
	return name
}
