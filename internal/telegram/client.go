// Package telegram provides a client for delivering run reports via the
// Telegram Bot API.
package telegram

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxMessageLen is Telegram's hard limit for a single sendMessage call.
const maxMessageLen = 4096

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
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

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// sendHTML sends an HTML-formatted message with linear-backoff retry.
func (c *Client) sendHTML(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML

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

// SendSummary sends the short HTML run summary.
func (c *Client) SendSummary(summary string) error {
	return c.sendHTML(summary)
}

// SendDocument uploads the full report as a plain-text file attachment.
func (c *Client) SendDocument(filename, caption string, content []byte) error {
	doc := tgbotapi.NewDocument(c.chatID, tgbotapi.FileBytes{
		Name:  filename,
		Bytes: content,
	})
	doc.Caption = caption

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(doc); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// SendReport delivers the full report text. It tries a document upload first
// and falls back to chunked plain messages when the upload fails, so a
// transient upload problem never loses a report.
func (c *Client) SendReport(filename, caption, report string) error {
	if err := c.SendDocument(filename, caption, []byte(report)); err == nil {
		return nil
	}
	for _, chunk := range chunkMessage(report, maxMessageLen) {
		msg := tgbotapi.NewMessage(c.chatID, chunk)
		if _, err := c.bot.Send(msg); err != nil {
			return fmt.Errorf("failed to send report chunk: %w", err)
		}
	}
	return nil
}

// SendError sends a monitoring error notification.
// Call this only on the first occurrence of a consecutive error sequence.
func (c *Client) SendError(cycleErr error) error {
	text := fmt.Sprintf("⚠️ <b>Monitoring error</b>\n<code>%s</code>", html.EscapeString(cycleErr.Error()))
	return c.sendHTML(text)
}

// SendRecovery sends a recovery notification after consecutive failures.
func (c *Client) SendRecovery(failureCount int) error {
	text := fmt.Sprintf("✅ <b>Monitoring recovered</b> after %d consecutive failure(s)", failureCount)
	return c.sendHTML(text)
}

// chunkMessage splits text into pieces of at most limit bytes, preferring
// line boundaries. A single line longer than the limit is hard-split.
func chunkMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var b strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			if b.Len() > 0 {
				chunks = append(chunks, b.String())
				b.Reset()
			}
			chunks = append(chunks, line[:limit])
			line = line[limit:]
		}
		if b.Len()+len(line) > limit {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		b.WriteString(line)
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}
