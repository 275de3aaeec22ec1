package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"ot-job-monitor/internal/scraper"
)

const DefaultPause = time.Second

type Options struct {
	// APIEndpoint is a tgbotapi endpoint format, e.g. "https://api.telegram.org/bot%s/%s".
	APIEndpoint string
	HTTPClient  *http.Client
	// Pause between consecutive sends to stay clear of 429s.
	Pause time.Duration
}

type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	pause  time.Duration
	logger *zap.Logger
}

// NewNotifier connects to the Bot API. The token is checked with getMe as
// part of construction.
func NewNotifier(token string, chatID int64, opts Options, logger *zap.Logger) (*Notifier, error) {
	if opts.APIEndpoint == "" {
		opts.APIEndpoint = tgbotapi.APIEndpoint
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.Pause < 0 {
		opts.Pause = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, opts.APIEndpoint, opts.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}

	//turn this on in case of debug
	//api.Debug = true

	return &Notifier{
		api:    api,
		chatID: chatID,
		pause:  opts.Pause,
		logger: logger,
	}, nil
}

// TestConnection verifies the token is still accepted.
func (n *Notifier) TestConnection() error {
	me, err := n.api.GetMe()
	if err != nil {
		return fmt.Errorf("telegram getMe: %w", err)
	}
	n.logger.Info("✅ Telegram bot connection successful", zap.String("bot", me.UserName))
	return nil
}

// SendMatched sends one bilingual alert per posting and returns how many
// went through. A failed send is logged and skipped.
func (n *Notifier) SendMatched(ctx context.Context, postings []scraper.Posting) int {
	sent := 0
	for i, p := range postings {
		if !n.wait(ctx, i > 0) {
			break
		}
		if ok, total := n.sendChunks(FormatPosting(p)); ok < total {
			n.logger.Error("❌ Failed to send job alert", zap.String("id", p.ID), zap.String("title", p.Title))
			continue
		}
		n.logger.Info("📤 Telegram message sent", zap.String("id", p.ID), zap.String("title", p.Title))
		sent++
	}
	n.logger.Info("📤 Sent job alerts", zap.Int("sent", sent), zap.Int("total", len(postings)))
	return sent
}

// SendUnmatchedSummary sends the digest of non-matching postings. Every
// delivered chunk counts as one; empty input sends nothing.
func (n *Notifier) SendUnmatchedSummary(ctx context.Context, postings []scraper.Posting) int {
	if len(postings) == 0 {
		return 0
	}
	if ctx.Err() != nil {
		return 0
	}
	sent, total := n.sendChunks(FormatSummary(postings))
	if sent < total {
		n.logger.Error("❌ Failed to send part of the unmatched summary", zap.Int("sent", sent), zap.Int("chunks", total))
	}
	n.logger.Info("📋 Unmatched jobs summary sent", zap.Int("jobs", len(postings)), zap.Int("messages", sent))
	return sent
}

// SendDebug sends every field of each posting, splitting long messages.
// The result counts delivered messages, chunks included.
func (n *Notifier) SendDebug(ctx context.Context, postings []scraper.Posting) int {
	sent := 0
	for i, p := range postings {
		if !n.wait(ctx, i > 0) {
			break
		}
		ok, total := n.sendChunks(FormatDebug(p))
		if ok < total {
			n.logger.Error("❌ Failed to send debug message", zap.String("id", p.ID), zap.Int("sent", ok), zap.Int("chunks", total))
		}
		sent += ok
	}
	n.logger.Info("🔍 Sent debug alerts", zap.Int("messages", sent), zap.Int("jobs", len(postings)))
	return sent
}

func (n *Notifier) SendStatus(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.send("ℹ️ " + esc(message))
}

func (n *Notifier) SendError(ctx context.Context, errReq error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.send(fmt.Sprintf("⚠️ <b>Job Monitor Error</b>:\n%s", esc(errReq.Error())))
}

func (n *Notifier) sendChunks(text string) (sent, total int) {
	chunks := Chunk(text, MaxMessageRunes)
	for _, c := range chunks {
		if err := n.send(c); err != nil {
			n.logger.Warn("⚠️ Telegram send failed", zap.Error(err))
			continue
		}
		sent++
	}
	return sent, len(chunks)
}

func (n *Notifier) send(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := n.api.Send(msg)
	return err
}

// wait sleeps for the configured pause when pause is set and reports
// whether the caller should keep sending.
func (n *Notifier) wait(ctx context.Context, pause bool) bool {
	if !pause || n.pause <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(n.pause)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
