// Package telegram provides a notifier for created markets and pipeline
// health via the Telegram Bot API.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/darkalpha/marketscout/internal/models"
)

// Notifier sends MarkdownV2 messages to a fixed chat.
type Notifier struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewNotifier creates a Telegram notifier.
func NewNotifier(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Notifier{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (n *Notifier) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < n.maxRetries; i++ {
		if _, err := n.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(n.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", n.maxRetries, lastErr)
}

// NotifyCreated announces one newly created market.
func (n *Notifier) NotifyCreated(opp models.Opportunity, marketRef string) error {
	return n.sendMarkdownV2(formatCreated(opp, marketRef))
}

// NotifyError reports a failed scan cycle. Call this only on the first
// occurrence of a consecutive error sequence.
func (n *Notifier) NotifyError(cycleErr error) error {
	text := fmt.Sprintf("⚠️ *Scan cycle failed*\n`%s`", escapeMarkdownV2(cycleErr.Error()))
	return n.sendMarkdownV2(text)
}

// NotifyRecovery reports recovery after consecutive failures.
func (n *Notifier) NotifyRecovery(failureCount int) error {
	text := fmt.Sprintf("✅ *Scanning recovered* after %d consecutive failure\\(s\\)", failureCount)
	return n.sendMarkdownV2(text)
}

func formatCreated(opp models.Opportunity, marketRef string) string {
	message := "🆕 *Market created*\n\n"
	message += fmt.Sprintf("❓ %s\n", escapeMarkdownV2(opp.Question))
	message += fmt.Sprintf("🏷 %s / %s\n", escapeMarkdownV2(string(opp.Category)), escapeMarkdownV2(string(opp.Urgency)))
	message += fmt.Sprintf("📊 confidence %s, %d days, liquidity %s\n",
		escapeMarkdownV2(fmt.Sprintf("%.2f", opp.Confidence)),
		opp.SuggestedDurationDays,
		escapeMarkdownV2(fmt.Sprintf("%.0f", opp.SuggestedLiquidity)),
	)
	if opp.SourceRef.FromCandidate() && opp.SourceRef.Title != "" {
		title := escapeMarkdownV2(opp.SourceRef.Title)
		if opp.SourceRef.Link != "" {
			message += fmt.Sprintf("📰 [%s](%s)\n", title, opp.SourceRef.Link)
		} else {
			message += fmt.Sprintf("📰 %s\n", title)
		}
	} else if opp.SourceRef.Topic != "" {
		message += fmt.Sprintf("💡 %s\n", escapeMarkdownV2(opp.SourceRef.Topic))
	}
	message += fmt.Sprintf("🔗 ref `%s`", escapeMarkdownV2(marketRef))
	return message
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
