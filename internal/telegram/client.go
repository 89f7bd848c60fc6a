// Package telegram provides a client for sending notifications via Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/foldwatch/foldwatch/internal/models"
)

// Client handles Telegram notifications. Digests go to the main chat; error
// and health traffic goes to the alerts chat when one is configured.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	alertsChatID   int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client. alertsChatID may be empty, in
// which case operational messages share the main chat.
func NewClient(botToken, chatID, alertsChatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	alertsChatIDInt := chatIDInt
	if alertsChatID != "" {
		alertsChatIDInt, err = strconv.ParseInt(alertsChatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid alerts chat ID: %w", err)
		}
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		alertsChatID:   alertsChatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// ListenForCommands starts a goroutine that polls for Telegram updates and handles bot commands.
// It returns immediately; the goroutine stops when ctx is cancelled.
func (c *Client) ListenForCommands(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil && update.Message.IsCommand() {
					c.handleCommand(update.Message)
				}
			}
		}
	}()
}

func (c *Client) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "ping":
		reply := tgbotapi.NewMessage(msg.Chat.ID, "Pong")
		c.bot.Send(reply) //nolint:errcheck
	}
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "MarkdownV2"
	msg.DisableWebPagePreview = true

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// Send delivers a market move digest to the main chat.
func (c *Client) Send(n models.Notification) error {
	return c.sendMarkdownV2(c.chatID, formatDigest(n))
}

// Announce posts a "now tracking" message for a newly added question.
func (c *Client) Announce(marketName, marketURL string) error {
	text := fmt.Sprintf("\U0001F331 [%s](%s)\n\U0001F440 Now tracking this market",
		escapeMarkdownV2(marketName), marketURL)
	return c.sendMarkdownV2(c.chatID, text)
}

// SendError sends a watcher error notification.
// Call this only on the first occurrence of a consecutive error sequence.
func (c *Client) SendError(cycleErr error) error {
	text := fmt.Sprintf("⚠️ *Watcher error*\n`%s`", escapeMarkdownV2(cycleErr.Error()))
	return c.sendMarkdownV2(c.alertsChatID, text)
}

// SendRecovery sends a recovery notification after consecutive failures.
func (c *Client) SendRecovery(failureCount int) error {
	text := fmt.Sprintf("✅ *Watcher recovered* after %d consecutive failure\\(s\\)", failureCount)
	return c.sendMarkdownV2(c.alertsChatID, text)
}

// SendStartup announces the watcher coming online.
func (c *Client) SendStartup(trackedCount int) error {
	text := fmt.Sprintf("\U0001F7E2 *Watcher started*, tracking %d questions", trackedCount)
	return c.sendMarkdownV2(c.alertsChatID, text)
}

// SendHealth reports the periodic health summary.
func (c *Client) SendHealth(trackedCount, notificationsSent int) error {
	text := fmt.Sprintf("\U0001FA7A *Health*: %d questions tracked, %d notifications in the audit trail",
		trackedCount, notificationsSent)
	return c.sendMarkdownV2(c.alertsChatID, text)
}

// formatDigest formats a market move notification into a MarkdownV2 message.
func formatDigest(n models.Notification) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\U0001F6A8 [%s](%s)\n", escapeMarkdownV2(n.MarketName), n.MarketURL)
	fmt.Fprintf(&b, "%s\n", escapeMarkdownV2(n.Report))

	if n.Comments != "" {
		fmt.Fprintf(&b, "\n%s\n", escapeMarkdownV2(n.Comments))
	}
	if n.MoreInfo != "" {
		fmt.Fprintf(&b, "\n%s", escapeMarkdownV2(n.MoreInfo))
	}

	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
