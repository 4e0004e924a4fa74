// Package bot is the Telegram front end of the trainer. It serves a single owner
// chat and applies every update and reminder on one sequential loop, so the session
// controller is never touched concurrently.
package bot

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/drillbot/internal/session"
)

// API is the part of the Telegram client the bot uses
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Options configures a Bot
type Options struct {
	OwnerChatID int64
	// UploadDir receives question files sent to the chat as documents
	UploadDir  string
	HTTPClient *http.Client
}

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// Bot represents the Telegram bot application
type Bot struct {
	api        API
	controller *session.Controller
	owner      int64
	uploadDir  string
	client     *http.Client
	logger     *slog.Logger

	reminders chan struct{}
	// questionMsgID identifies the message carrying the live option buttons
	questionMsgID int
}

// New creates a bot bound to controller
func New(api API, controller *session.Controller, opts Options, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Bot{
		api:        api,
		controller: controller,
		owner:      opts.OwnerChatID,
		uploadDir:  opts.UploadDir,
		client:     client,
		logger:     logger,
		reminders:  make(chan struct{}, 1),
	}
}

// Run processes updates and reminders until ctx is done or updates is closed
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	b.logger.Info("bot started", "owner_chat_id", b.owner)
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("bot stopped")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				b.logger.Info("update channel closed")
				return nil
			}
			b.HandleUpdate(ctx, update)
		case <-b.reminders:
			b.remind()
		}
	}
}

// SendReminder queues a practice reminder for the owner chat. It implements
// scheduler.Notifier and is safe to call from any goroutine; a reminder already
// waiting in the queue absorbs later ones.
func (b *Bot) SendReminder() error {
	select {
	case b.reminders <- struct{}{}:
	default:
		b.logger.Debug("reminder already queued")
	}
	return nil
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// sendMessage sends msg and logs failures
func (b *Bot) sendMessage(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	sent, err := b.api.Send(msg)
	if err != nil {
		b.logger.Error("failed to send message", "error", err)
	}
	return sent, err
}

// Telegram rejects messages longer than 4096 characters. Byte length bounds the character count.
const maxMessageLength = 4096

// sendText sends a plain text message to the owner chat, split into several
// messages when it is too long for one
func (b *Bot) sendText(text string) {
	for _, chunk := range splitMessage(text, maxMessageLength) {
		if _, err := b.sendMessage(tgbotapi.NewMessage(b.owner, chunk)); err != nil {
			return
		}
	}
}

// splitMessage cuts text into chunks of at most limit bytes, preferring line breaks
// and never splitting a UTF-8 sequence
func splitMessage(text string, limit int) []string {
	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndexByte(text[:limit+1], '\n')
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" || len(chunks) == 0 {
		chunks = append(chunks, text)
	}
	return chunks
}

// sendCallbackResponse acknowledges a button press
func (b *Bot) sendCallbackResponse(callbackID, text string) {
	callback := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(callback); err != nil {
		b.logger.Warn("failed to answer callback", "error", err)
	}
}
