package telegram

import (
	"anonrelay/backend/internal/models"
	"anonrelay/backend/internal/transport"
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// botAPI is the part of *tgbotapi.BotAPI the adapter uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Client implements transport.Transport on top of the Bot API.
// Every message is sent in HTML parse mode.
type Client struct {
	API    botAPI
	Logger *slog.Logger
}

func NewClient(api botAPI, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{API: api, Logger: logger}
}

// Send delivers msg. ctx is accepted for the transport contract; the Bot API
// client does its own request timeouts.
func (c *Client) Send(_ context.Context, msg transport.Outbound) (transport.SentRef, error) {
	tgMsg := c.build(msg)
	sent, err := c.API.Send(tgMsg)
	if err != nil {
		return transport.SentRef{}, fmt.Errorf("%w: %w", models.ErrTransport, err)
	}
	return transport.SentRef{ChatID: msg.ChatID, MessageID: sent.MessageID}, nil
}

// AnswerCallback stops the loading animation of an inline button and shows text.
func (c *Client) AnswerCallback(_ context.Context, callbackID, text string) error {
	if _, err := c.API.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("%w: %w", models.ErrTransport, err)
	}
	return nil
}

// build never cuts msg.Text: it is HTML, and cutting markup makes the Bot API
// reject the message. Renderers clip user text to the limits before escaping.
func (c *Client) build(msg transport.Outbound) tgbotapi.Chattable {
	caption := msg.Text
	markup := replyMarkup(msg)

	switch content := msg.Content.(type) {
	case models.Photo:
		photo := tgbotapi.NewPhoto(msg.ChatID, tgbotapi.FileID(content.FileID))
		photo.Caption = caption
		photo.ParseMode = tgbotapi.ModeHTML
		photo.ReplyMarkup = markup
		return photo
	case models.Video:
		video := tgbotapi.NewVideo(msg.ChatID, tgbotapi.FileID(content.FileID))
		video.Caption = caption
		video.ParseMode = tgbotapi.ModeHTML
		video.ReplyMarkup = markup
		return video
	case models.Document:
		doc := tgbotapi.NewDocument(msg.ChatID, tgbotapi.FileID(content.FileID))
		doc.Caption = caption
		doc.ParseMode = tgbotapi.ModeHTML
		doc.ReplyMarkup = markup
		return doc
	}

	text := msg.Text
	if text == "" {
		text = models.Summary(msg.Content)
	}
	if _, ok := msg.Content.(models.Unknown); ok {
		c.Logger.Warn("Sending unknown content as text", "chat_id", msg.ChatID)
	}
	m := tgbotapi.NewMessage(msg.ChatID, text)
	m.ParseMode = tgbotapi.ModeHTML
	m.ReplyMarkup = markup
	return m
}

// replyMarkup returns nil when the message carries no keyboard.
func replyMarkup(msg transport.Outbound) interface{} {
	switch {
	case len(msg.Actions) > 0:
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(msg.Actions))
		for _, row := range msg.Actions {
			buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
			for _, a := range row {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(a.Label, a.Action.Encode()))
			}
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
		}
		return tgbotapi.NewInlineKeyboardMarkup(rows...)
	case len(msg.Menu) > 0:
		rows := make([][]tgbotapi.KeyboardButton, 0, len(msg.Menu))
		for _, row := range msg.Menu {
			buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
			for _, label := range row {
				buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
			}
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(buttons...))
		}
		kb := tgbotapi.NewReplyKeyboard(rows...)
		kb.ResizeKeyboard = true
		return kb
	case msg.RemoveMenu:
		return tgbotapi.NewRemoveKeyboard(true)
	}
	return nil
}
