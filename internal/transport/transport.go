// Package transport defines what the relay core needs from a chat transport.
package transport

import (
	"anonrelay/backend/internal/models"
	"context"
	"html"
	"unicode/utf8"
)

// Affordance is an inline button bound to a moderation action.
type Affordance struct {
	Label  string
	Action models.Action
}

// Outbound is a message the core asks the transport to deliver.
type Outbound struct {
	ChatID int64
	// Content is the payload. For media, Text is used as the caption.
	Content models.Content
	// Text overrides the body of a Text content and is the caption of media.
	Text string
	// Actions are rows of inline buttons.
	Actions [][]Affordance
	// Menu are rows of reply-keyboard buttons shown under the input field.
	Menu [][]string
	// RemoveMenu hides a previously shown reply keyboard.
	RemoveMenu bool
}

// SentRef identifies a delivered message.
type SentRef struct {
	ChatID    int64
	MessageID int
}

// Transport delivers messages and acknowledges inline button presses.
type Transport interface {
	Send(ctx context.Context, msg Outbound) (SentRef, error)
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// NewText builds a plain text Outbound.
func NewText(chatID int64, text string) Outbound {
	return Outbound{ChatID: chatID, Content: models.Text{Body: text}, Text: text}
}

// ErrorPreview renders err for a chat message, cut to limit runes.
func ErrorPreview(err error, limit int) string {
	if err == nil {
		return ""
	}
	r := []rune(err.Error())
	if len(r) > limit {
		r = r[:limit]
	}
	return html.EscapeString(string(r))
}

// Room returns how many runes of user text fit in limit once frame, the
// rendered message without that text, is counted. Markup in frame is counted
// as visible, so the result never overshoots.
func Room(limit int, frame string) int {
	n := limit - utf8.RuneCountInString(frame)
	if n < 0 {
		return 0
	}
	return n
}

// Clip cuts unescaped user text to limit runes, marking the cut with an ellipsis.
// Escape the result afterwards, never before.
func Clip(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	return string(r[:limit-1]) + "…"
}
