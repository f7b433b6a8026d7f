// Package telegram sends dataset digests via the Telegram Bot API.
// A digest carries the overall stats of the current view, the per-category
// breakdown and, when a cell is selected, that cell's metrics.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/usercube/internal/logger"
	"github.com/rewired-gh/usercube/internal/models"
)

// Digest is the content of one notification.
type Digest struct {
	Dataset    string
	LoadedAt   time.Time
	Filter     string
	Stats      models.GlobalStats
	Categories []models.CategoryStats
	Selected   *models.Cell
}

// Client handles Telegram notifications
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	return NewClientWithEndpoint(botToken, chatID, tgbotapi.APIEndpoint, maxRetries, retryDelayBase)
}

// NewClientWithEndpoint creates a client against a custom Bot API endpoint,
// formatted like tgbotapi.APIEndpoint.
func NewClientWithEndpoint(botToken, chatID, endpoint string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	bot, err := tgbotapi.NewBotAPIWithClient(botToken, endpoint, &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
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
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// Send sends a digest, retrying with a linear backoff.
func (c *Client) Send(ctx context.Context, d Digest) error {
	msg := tgbotapi.NewMessage(c.chatID, FormatDigest(d))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelayBase * time.Duration(i)):
			}
		}
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		logger.Warn("Telegram send attempt %d failed: %v", i+1, err)
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// FormatDigest renders a digest as a MarkdownV2 message.
func FormatDigest(d Digest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 *%s*\n", escapeMarkdownV2(d.Dataset))
	if !d.LoadedAt.IsZero() {
		fmt.Fprintf(&b, "🕒 Loaded %s\n", escapeMarkdownV2(humanize.Time(d.LoadedAt)))
	}
	if f := strings.TrimSpace(d.Filter); f != "" {
		fmt.Fprintf(&b, "🔎 Filter: `%s`\n", escapeMarkdownV2(f))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "👥 Users: *%s*\n", humanize.Comma(int64(d.Stats.UserCount)))
	fmt.Fprintf(&b, "⏱ Total: *%sh*  Avg: *%s min*\n",
		humanize.Comma(int64(d.Stats.TotalHours)), humanize.Comma(int64(d.Stats.AvgMin)))
	fmt.Fprintf(&b, "🔁 Binge sessions: *%s*\n", humanize.Comma(int64(d.Stats.TotalBinge)))

	if len(d.Categories) > 0 {
		b.WriteString("\n*By category*\n")
		for _, cs := range d.Categories {
			if cs.Cells == 0 {
				continue
			}
			share := escapeMarkdownV2(fmt.Sprintf("%.1f%%", cs.ShareOfTotal*100))
			fmt.Fprintf(&b, "• %s: %s min \\(%s\\), %d users\n",
				escapeMarkdownV2(cs.Label), escapeMarkdownV2(humanize.Commaf(cs.Minutes)), share, cs.Cells)
		}
	}

	if cell := d.Selected; cell != nil {
		fmt.Fprintf(&b, "\n🎯 *%s*\n", escapeMarkdownV2(cell.ID))
		fmt.Fprintf(&b, "   %s min over %d sessions\n",
			escapeMarkdownV2(humanize.Commaf(cell.Metric(models.MetricSessionMinutes))), len(cell.Details))
		fmt.Fprintf(&b, "   Completed %d, binge %d, recommended %d\n",
			int(cell.Metric(models.MetricCompleted)),
			int(cell.Metric(models.MetricBinge)),
			int(cell.Metric(models.MetricRecommended)))
	}

	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	// Characters that need escaping in MarkdownV2:
	// _ * [ ] ( ) ~ ` > # + - = | { } . !
	var b strings.Builder
	b.Grow(len(text))
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
