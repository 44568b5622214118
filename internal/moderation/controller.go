// Package moderation implements the administrator's reply, ban and done actions.
package moderation

import (
	"anonrelay/backend/internal/config"
	"anonrelay/backend/internal/localization"
	"anonrelay/backend/internal/models"
	"anonrelay/backend/internal/pending"
	"anonrelay/backend/internal/storage"
	"anonrelay/backend/internal/transport"
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
)

type Options struct {
	AdminID       int64
	AdminLanguage string
	// UserLanguage is used for the reply header sent to users.
	UserLanguage  string
	Logger        *slog.Logger
}

type Controller struct {
	store     storage.Storage
	transport transport.Transport
	loc       *localization.Localizer
	pending   pending.Store
	opts      Options
	logger    *slog.Logger
}

func NewController(s storage.Storage, t transport.Transport, loc *localization.Localizer, p pending.Store, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.UserLanguage == "" {
		opts.UserLanguage = opts.AdminLanguage
	}
	return &Controller{
		store:     s,
		transport: t,
		loc:       loc,
		pending:   p,
		opts:      opts,
		logger:    logger.With("component", "moderation"),
	}
}

func (c *Controller) text(key string, args ...any) string {
	return c.loc.Format(c.opts.AdminLanguage, key, args...)
}

func (c *Controller) ack(ctx context.Context, callbackID, text string) {
	if err := c.transport.AnswerCallback(ctx, callbackID, text); err != nil {
		c.logger.Warn("Failed to answer callback", "callback_id", callbackID, "error", err)
	}
}

func (c *Controller) notifyAdmin(ctx context.Context, text string) {
	if _, err := c.transport.Send(ctx, transport.NewText(c.opts.AdminID, text)); err != nil {
		c.logger.Error("Failed to notify admin", "error", err)
	}
}

// OnReplyAction binds the administrator's next message to anonID and asks for it.
func (c *Controller) OnReplyAction(ctx context.Context, callbackID, anonID string) error {
	c.ack(ctx, callbackID, c.text("reply_ack", anonID))

	ref, err := c.transport.Send(ctx, transport.NewText(c.opts.AdminID, c.text("reply_prompt", anonID)))
	if err != nil {
		c.logger.Error("Failed to prompt admin for reply", "anon_id", anonID, "error", err)
		return fmt.Errorf("%w: %w", models.ErrTransport, err)
	}

	action := pending.Action{Kind: pending.Reply, AnonID: anonID, PromptMessageID: ref.MessageID}
	if err := c.pending.Set(ctx, c.opts.AdminID, action); err != nil {
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	c.logger.Info("Awaiting admin reply", "anon_id", anonID)
	return nil
}

// AwaitingReply reports the anonymous ID the administrator is replying to, if any.
func (c *Controller) AwaitingReply(ctx context.Context) (string, bool, error) {
	a, ok, err := c.pending.Get(ctx, c.opts.AdminID)
	if err != nil || !ok || a.Kind != pending.Reply {
		return "", false, err
	}
	return a.AnonID, true, nil
}

// CancelReply drops the administrator's reply binding.
func (c *Controller) CancelReply(ctx context.Context) error {
	anonID, ok, err := c.AwaitingReply(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	if !ok {
		c.notifyAdmin(ctx, c.text("nothing_to_cancel"))
		return nil
	}
	if err := c.pending.Clear(ctx, c.opts.AdminID); err != nil {
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	c.notifyAdmin(ctx, c.text("reply_cancelled", anonID))
	return nil
}

func (c *Controller) clearBinding(ctx context.Context) {
	if err := c.pending.Clear(ctx, c.opts.AdminID); err != nil {
		c.logger.Warn("Failed to clear reply binding", "error", err)
	}
}

// SendReply delivers content to the author of the pending message anonID.
// The message is marked replied only after the user received it.
func (c *Controller) SendReply(ctx context.Context, anonID string, content models.Content) error {
	if content.Type() == models.ContentUnknown {
		c.notifyAdmin(ctx, c.text("reply_unsupported"))
		return models.ErrUnsupportedContent
	}

	msg, err := c.store.FindPendingByAnonID(ctx, anonID)
	if errors.Is(err, models.ErrNotFound) {
		c.clearBinding(ctx)
		c.notifyAdmin(ctx, c.text("reply_not_found", anonID))
		return err
	}
	if err != nil {
		c.notifyAdmin(ctx, c.text("admin_internal_error", transport.ErrorPreview(err, config.ErrorPreviewLength)))
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}

	out := c.renderReply(msg.UserID, anonID, content)
	if _, err := c.transport.Send(ctx, out); err != nil {
		c.logger.Error("Failed to deliver reply", "anon_id", anonID, "user_id", msg.UserID, "error", err)
		c.clearBinding(ctx)
		c.notifyAdmin(ctx, c.text("reply_failed", transport.ErrorPreview(err, config.ErrorPreviewLength)))
		return fmt.Errorf("%w: %w", models.ErrTransport, err)
	}

	if err := c.store.MarkReplied(ctx, anonID, responseText(content)); err != nil {
		c.logger.Error("Reply delivered but not recorded", "anon_id", anonID, "error", err)
		c.clearBinding(ctx)
		c.notifyAdmin(ctx, c.text("admin_internal_error", transport.ErrorPreview(err, config.ErrorPreviewLength)))
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}

	c.clearBinding(ctx)
	c.logger.Info("Reply delivered", "anon_id", anonID, "user_id", msg.UserID)
	c.notifyAdmin(ctx, c.text("reply_sent", anonID))
	return nil
}

func (c *Controller) renderReply(userID int64, anonID string, content models.Content) transport.Outbound {
	header := c.loc.Format(c.opts.UserLanguage, "reply_header", anonID)
	limit := config.MaxCaptionLength
	if content.Type() == models.ContentText {
		limit = config.MaxTextLength
	}
	summary := transport.Clip(models.Summary(content), transport.Room(limit, header))
	body := header + html.EscapeString(summary)

	out := transport.Outbound{ChatID: userID, Content: content, Text: body}
	if t, ok := content.(models.Text); ok {
		t.Body = body
		out.Content = t
	}
	return out
}

// responseText is what gets stored as the admin response.
func responseText(content models.Content) string {
	summary := models.Summary(content)
	if content.Type() == models.ContentText {
		return summary
	}
	if summary == "" {
		return "[" + string(content.Type()) + "]"
	}
	return "[" + string(content.Type()) + "] " + summary
}

// OnBanAction bans userID. All their messages become banned. The user is not notified.
func (c *Controller) OnBanAction(ctx context.Context, callbackID string, userID int64) error {
	reason := c.text("ban_reason")
	if err := c.store.BanUser(ctx, userID, reason); err != nil {
		c.logger.Error("Failed to ban user", "user_id", userID, "error", err)
		c.ack(ctx, callbackID, c.text("ban_ack_failed"))
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	c.ack(ctx, callbackID, c.text("ban_ack"))
	c.logger.Info("User banned", "user_id", userID)
	c.notifyAdmin(ctx, c.text("ban_done", userID))
	return nil
}

// OnDoneAction marks every message of anonID as done.
func (c *Controller) OnDoneAction(ctx context.Context, callbackID, anonID string) error {
	err := c.store.MarkDone(ctx, anonID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.ack(ctx, callbackID, c.text("done_ack_failed"))
		c.notifyAdmin(ctx, c.text("done_not_found", anonID))
		return err
	case err != nil:
		c.logger.Error("Failed to mark message done", "anon_id", anonID, "error", err)
		c.ack(ctx, callbackID, c.text("done_ack_failed"))
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	c.ack(ctx, callbackID, c.text("done_ack"))
	c.logger.Info("Message marked done", "anon_id", anonID)
	c.notifyAdmin(ctx, c.text("done_done", anonID))
	return nil
}
