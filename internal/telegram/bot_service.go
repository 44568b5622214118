// Package telegram connects the relay to the Telegram Bot API.
// It converts updates into transport-neutral messages for the dispatcher
// and renders outbound messages back into Bot API calls.
package telegram

import (
	"anonrelay/backend/internal/config"
	"anonrelay/backend/internal/models"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Handler receives decoded updates, one at a time.
type Handler interface {
	HandleMessage(ctx context.Context, in models.Inbound)
	HandleCallback(ctx context.Context, cb models.Callback)
}

// BotService is responsible for receiving Telegram updates and routing them to the handler.
type BotService struct {
	API            botAPI
	Handler        Handler
	Logger         *slog.Logger
	ReconnectDelay time.Duration
	PollTimeout    int
}

// NewBotService creates a new BotService instance.
func NewBotService(api botAPI, h Handler, logger *slog.Logger) *BotService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BotService{
		API:            api,
		Handler:        h,
		Logger:         logger,
		ReconnectDelay: config.DefaultReconnectDelay,
		PollTimeout:    config.DefaultPollTimeout,
	}
}

// Connect authorizes token against the Bot API, retrying every delay until it
// succeeds or ctx is cancelled.
func Connect(ctx context.Context, token string, delay time.Duration, logger *slog.Logger) (*tgbotapi.BotAPI, error) {
	for {
		bot, err := tgbotapi.NewBotAPI(token)
		if err == nil {
			bot.Debug = false
			logger.Info("Authorized on Telegram", "account", bot.Self.UserName)
			return bot, nil
		}
		logger.Error("Failed to connect to Telegram, retrying", "error", err, "delay", delay)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect to telegram: %w", errors.Join(ctx.Err(), err))
		case <-time.After(delay):
		}
	}
}

// Run is the main loop for receiving Telegram updates. It restarts polling
// after ReconnectDelay whenever the update stream ends, and returns when ctx is done.
func (s *BotService) Run(ctx context.Context) error {
	for {
		s.poll(ctx)
		if ctx.Err() != nil {
			s.Logger.Info("Polling stopped")
			return nil
		}

		s.Logger.Warn("Update stream interrupted, reconnecting", "delay", s.ReconnectDelay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.ReconnectDelay):
		}
	}
}

func (s *BotService) poll(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("Recovered from panic in polling loop", "panic", fmt.Sprint(r))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = s.PollTimeout
	updates := s.API.GetUpdatesChan(u)
	s.Logger.Info("Polling for updates")

	for {
		select {
		case <-ctx.Done():
			s.API.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			s.dispatch(ctx, update)
		}
	}
}

func (s *BotService) dispatch(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		s.Handler.HandleMessage(ctx, toInbound(update.Message))
	case update.CallbackQuery != nil:
		s.Handler.HandleCallback(ctx, toCallback(update.CallbackQuery))
	}
}

func toSender(u *tgbotapi.User, chatID int64) models.Sender {
	if u == nil {
		return models.Sender{ID: chatID}
	}
	return models.Sender{
		ID:           u.ID,
		Username:     u.UserName,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		LanguageCode: u.LanguageCode,
	}
}

// toInbound decodes a Telegram message. Media is referenced by file ID;
// of a photo only the largest size is kept.
func toInbound(msg *tgbotapi.Message) models.Inbound {
	in := models.Inbound{
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Sender:    toSender(msg.From, msg.Chat.ID),
		Content:   extractContent(msg),
	}
	if msg.IsCommand() {
		in.Command = msg.Command()
	}
	return in
}

func extractContent(msg *tgbotapi.Message) models.Content {
	switch {
	case msg.Text != "":
		return models.Text{Body: msg.Text}
	case len(msg.Photo) > 0:
		largest := msg.Photo[len(msg.Photo)-1]
		return models.Photo{FileID: largest.FileID, Caption: msg.Caption}
	case msg.Video != nil:
		return models.Video{FileID: msg.Video.FileID, Caption: msg.Caption}
	case msg.Animation != nil:
		return models.Unknown{Kind: "animation"}
	case msg.Document != nil:
		return models.Document{FileID: msg.Document.FileID, FileName: msg.Document.FileName, Caption: msg.Caption}
	case msg.Sticker != nil:
		return models.Unknown{Kind: "sticker"}
	case msg.Voice != nil:
		return models.Unknown{Kind: "voice"}
	case msg.VideoNote != nil:
		return models.Unknown{Kind: "video_note"}
	case msg.Audio != nil:
		return models.Unknown{Kind: "audio"}
	case msg.Location != nil:
		return models.Unknown{Kind: "location"}
	case msg.Contact != nil:
		return models.Unknown{Kind: "contact"}
	default:
		return models.Unknown{Kind: "unknown"}
	}
}

func toCallback(q *tgbotapi.CallbackQuery) models.Callback {
	cb := models.Callback{ID: q.ID, Data: q.Data}
	if q.From != nil {
		cb.Sender = toSender(q.From, q.From.ID)
		cb.ChatID = q.From.ID
	}
	return cb
}
