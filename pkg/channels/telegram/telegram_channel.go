package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"helpdesk/pkg/api"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramConfig encapsulates the credentials required to authenticate with
// the Telegram Bot API.
type TelegramConfig struct {
	Token string `json:"token"` // The secret BOT API string provided by @BotFather
}

// TelegramChannel is the production implementation of api.Channel for the
// Telegram platform. Each Telegram chat maps to one conversation session;
// long replies are split across multiple message bubbles.
type TelegramChannel struct {
	config       TelegramConfig
	bot          *tgbotapi.BotAPI
	runner       api.TurnRunner
	messageLimit int // Maximum character count per single message bubble

	mu         sync.Mutex
	sessions   map[int64]string // Chat ID -> session ID
	stopCtx    context.Context  // Context used to forcibly abort the long-polling HTTP request
	stopCancel context.CancelFunc
}

func NewTelegramChannel(cfg TelegramConfig, runner api.TurnRunner, msgLimit int) (*TelegramChannel, error) {
	ctx, cancel := context.WithCancel(context.Background())

	// Dedicated HTTP client tied to stopCtx so active long-polling
	// requests abort instantly on Stop(), preventing the 409 Conflict
	// when the bot restarts.
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	botHttpClient := &http.Client{
		Timeout: 90 * time.Second,
		Transport: &http.Transport{
			DialContext: func(dialCtx context.Context, network, addr string) (net.Conn, error) {
				mergedCtx, mergedCancel := context.WithCancel(dialCtx)
				go func() {
					select {
					case <-ctx.Done():
						mergedCancel()
					case <-mergedCtx.Done():
					}
				}()
				return dialer.DialContext(mergedCtx, network, addr)
			},
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, tgbotapi.APIEndpoint, botHttpClient)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	slog.Info("Telegram bot authorized", "username", bot.Self.UserName)

	if msgLimit <= 0 {
		msgLimit = 4000
	}

	return &TelegramChannel{
		config:       cfg,
		bot:          bot,
		runner:       runner,
		messageLimit: msgLimit,
		sessions:     make(map[int64]string),
		stopCtx:      ctx,
		stopCancel:   cancel,
	}, nil
}

// ID returns the unique platform identifier "telegram".
func (t *TelegramChannel) ID() string {
	return "telegram"
}

// Start initiates the long-polling update loop in a background goroutine.
func (t *TelegramChannel) Start(ctx context.Context) error {
	offset := 0

	go func() {
		for {
			select {
			case <-t.stopCtx.Done():
				return // Gracefully exit on shutdown
			default:
			}

			reqConfig := tgbotapi.NewUpdate(offset)
			reqConfig.Timeout = 60

			updates, err := t.bot.GetUpdates(reqConfig)
			if err != nil {
				select {
				case <-t.stopCtx.Done():
					return // Ignore error if we are shutting down
				default:
					slog.Debug("Failed to get telegram updates", "error", err)
					time.Sleep(3 * time.Second)
					continue
				}
			}

			for _, update := range updates {
				if update.UpdateID >= offset {
					offset = update.UpdateID + 1

					if update.Message == nil || update.Message.Text == "" {
						continue
					}

					// Each chat gets its own turn; long turns must not
					// block the polling loop.
					go t.handleMessage(update.Message)
				}
			}
		}
	}()

	return nil
}

func (t *TelegramChannel) handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start", "new":
		t.mu.Lock()
		t.sessions[chatID] = t.runner.NewSession()
		t.mu.Unlock()
		t.send(chatID, "Starting a fresh conversation. How can I help you today?")
		return
	}

	t.mu.Lock()
	sessionID, ok := t.sessions[chatID]
	if !ok {
		sessionID = t.runner.NewSession()
		t.sessions[chatID] = sessionID
	}
	t.mu.Unlock()

	// Show the typing indicator while the turn runs
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	if _, err := t.bot.Request(action); err != nil {
		slog.Debug("Failed to send chat action", "error", err)
	}

	result, err := t.runner.RunTurn(t.stopCtx, &api.TurnRequest{
		SessionID: sessionID,
		Message:   msg.Text,
		Channel:   t.ID(),
	})
	if err != nil {
		slog.Error("Telegram turn failed", "chat", chatID, "error", err)
		t.send(chatID, "Sorry, something went wrong on our side. Please try again in a moment.")
		return
	}

	t.send(chatID, result.Message)
}

// splitMessage chops a reply into bubble-sized chunks by rune count, so
// multi-byte characters never get cut mid-sequence.
func splitMessage(message string, limit int) []string {
	msgRunes := []rune(message)
	totalLen := len(msgRunes)

	if totalLen <= limit {
		return []string{message}
	}

	chunks := make([]string, 0, totalLen/limit+1)
	for i := 0; i < totalLen; i += limit {
		end := i + limit
		if end > totalLen {
			end = totalLen
		}
		chunks = append(chunks, string(msgRunes[i:end]))
	}
	return chunks
}

// send delivers a message, splitting it into chunks when it exceeds the
// per-bubble character limit.
func (t *TelegramChannel) send(chatID int64, message string) {
	for i, chunk := range splitMessage(message, t.messageLimit) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		if _, err := t.bot.Send(msg); err != nil {
			slog.Error("Telegram send failed", "chat", chatID, "chunk", i, "error", err)
			return
		}
	}
}

func (t *TelegramChannel) Stop() error {
	t.stopCancel() // Cancel the long-polling loop immediately

	// Forcefully clear lingering HTTP connections
	if httpClient, ok := t.bot.Client.(*http.Client); ok && httpClient != nil {
		if transport, ok := httpClient.Transport.(*http.Transport); ok {
			transport.CloseIdleConnections()
		}
	}

	return nil
}
