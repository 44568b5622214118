// Package relay turns user submissions into anonymous messages for the administrator.
package relay

import (
	"anonrelay/backend/internal/anonid"
	"anonrelay/backend/internal/config"
	"anonrelay/backend/internal/localization"
	"anonrelay/backend/internal/models"
	"anonrelay/backend/internal/storage"
	"anonrelay/backend/internal/transport"
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"
)

type Options struct {
	AdminID       int64
	AdminLanguage string
	// RatePerMinute limits submissions per user. Zero disables the limit.
	RatePerMinute float64
	Burst         int
	Logger        *slog.Logger
}

// Submission is the result of a successful Submit.
type Submission struct {
	AnonID    string
	MessageID uint
}

type Engine struct {
	store     storage.Storage
	ids       anonid.Generator
	transport transport.Transport
	loc       *localization.Localizer
	opts      Options
	limiter   *userLimiter
	logger    *slog.Logger
	now       func() time.Time
}

func NewEngine(s storage.Storage, ids anonid.Generator, t transport.Transport, loc *localization.Localizer, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:     s,
		ids:       ids,
		transport: t,
		loc:       loc,
		opts:      opts,
		limiter:   newUserLimiter(opts.RatePerMinute, opts.Burst),
		logger:    logger.With("component", "relay"),
		now:       time.Now,
	}
}

// Submit records content from sender under a fresh anonymous ID and forwards
// it to the administrator. A failed forward is logged and reported to the
// administrator but does not fail the submission: the row is already stored.
func (e *Engine) Submit(ctx context.Context, sender models.Sender, content models.Content) (*Submission, error) {
	banned, err := e.store.IsBanned(ctx, sender.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	if banned {
		return nil, models.ErrBanned
	}

	now := e.now()
	if !e.limiter.allow(sender.ID, now) {
		return nil, models.ErrRateLimited
	}

	if err := e.store.UpsertUser(ctx, sender.User()); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}

	anonID, err := e.ids.Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: generating anonymous id: %w", models.ErrPersistence, err)
	}

	msgID, err := e.store.RecordMessage(ctx, sender.ID, anonID, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}

	e.logger.Info("Message recorded",
		"user_id", sender.ID, "anon_id", anonID, "message_id", msgID, "content_type", content.Type())

	if _, err := e.transport.Send(ctx, e.renderForward(sender, anonID, content, now)); err != nil {
		e.logger.Error("Failed to forward message to admin", "anon_id", anonID, "error", err)
		notice := e.loc.Format(e.opts.AdminLanguage, "admin_forward_failed",
			anonID, transport.ErrorPreview(err, config.ErrorPreviewLength))
		if _, nerr := e.transport.Send(ctx, transport.NewText(e.opts.AdminID, notice)); nerr != nil {
			e.logger.Error("Failed to notify admin about forward failure", "anon_id", anonID, "error", nerr)
		}
	}

	return &Submission{AnonID: anonID, MessageID: msgID}, nil
}

func (e *Engine) orNone(s string) string {
	if s == "" {
		return e.loc.GetString(e.opts.AdminLanguage, "none")
	}
	return html.EscapeString(s)
}

func (e *Engine) userInfo(sender models.Sender, anonID string, at time.Time) string {
	return e.loc.Format(e.opts.AdminLanguage, "admin_user_info",
		sender.ID,
		e.orNone(sender.FirstName),
		e.orNone(sender.LastName),
		e.orNone(sender.Username),
		at.Format(config.TimestampLayout),
		anonID,
	)
}

// renderForward builds the administrator's copy of a submission with the
// reply, ban and done actions attached. User text is clipped before escaping
// so the metadata block and the #anon_id tag always fit the Bot API limits.
func (e *Engine) renderForward(sender models.Sender, anonID string, content models.Content, at time.Time) transport.Outbound {
	lang := e.opts.AdminLanguage
	info := e.userInfo(sender, anonID, at)

	var frame string
	out := transport.Outbound{ChatID: e.opts.AdminID, Content: content}

	switch c := content.(type) {
	case models.Text:
		frame = e.loc.Format(lang, "admin_text", "", info)
		body := transport.Clip(c.Body, transport.Room(config.MaxTextLength, frame))
		out.Text = e.loc.Format(lang, "admin_text", html.EscapeString(body), info)
		out.Content = models.Text{Body: out.Text}
	case models.Photo:
		frame = e.loc.Format(lang, "admin_photo", info)
	case models.Video:
		frame = e.loc.Format(lang, "admin_video", info)
	case models.Document:
		frame = e.loc.Format(lang, "admin_document", e.orNone(c.FileName), info)
	case models.Unknown:
		out.Text = e.loc.Format(lang, "admin_unknown", html.EscapeString(c.Kind), info)
		out.Content = models.Text{Body: out.Text}
	}

	if content.Type() != models.ContentText && content.Type() != models.ContentUnknown {
		out.Text = frame
		if caption := models.Summary(content); caption != "" {
			room := transport.Room(config.MaxCaptionLength, frame+e.loc.Format(lang, "admin_caption", ""))
			out.Text += e.loc.Format(lang, "admin_caption", html.EscapeString(transport.Clip(caption, room)))
		}
	}

	out.Actions = [][]transport.Affordance{
		{
			{Label: e.loc.GetString(lang, "btn_reply"), Action: models.ReplyAction(anonID)},
			{Label: e.loc.GetString(lang, "btn_ban"), Action: models.BanAction(sender.ID)},
		},
		{
			{Label: e.loc.GetString(lang, "btn_done"), Action: models.DoneAction(anonID)},
		},
	}
	return out
}
