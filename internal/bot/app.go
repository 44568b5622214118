// Package bot routes decoded updates to the relay engine and the moderation controller.
package bot

import (
	"anonrelay/backend/internal/localization"
	"anonrelay/backend/internal/models"
	"anonrelay/backend/internal/moderation"
	"anonrelay/backend/internal/pending"
	"anonrelay/backend/internal/relay"
	"anonrelay/backend/internal/storage"
	"anonrelay/backend/internal/transport"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// App is the application context shared by all update handlers.
type App struct {
	Store      storage.Storage
	Engine     *relay.Engine
	Moderation *moderation.Controller
	Transport  transport.Transport
	Pending    pending.Store
	Localizer  *localization.Localizer

	AdminID         int64
	DefaultLanguage string
	Logger          *slog.Logger
}

func (a *App) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

func (a *App) lang(s models.Sender) string {
	return a.Localizer.Resolve(s.LanguageCode, a.DefaultLanguage)
}

func (a *App) menu(lang string) [][]string {
	return [][]string{
		{a.Localizer.GetString(lang, "btn_write_anon")},
		{a.Localizer.GetString(lang, "btn_help")},
	}
}

func (a *App) reply(ctx context.Context, log *slog.Logger, out transport.Outbound) {
	if _, err := a.Transport.Send(ctx, out); err != nil {
		log.Error("Failed to send message", "chat_id", out.ChatID, "error", err)
	}
}

func (a *App) say(ctx context.Context, log *slog.Logger, chatID int64, lang, key string, args ...any) {
	a.reply(ctx, log, transport.NewText(chatID, a.Localizer.Format(lang, key, args...)))
}

func (a *App) sayWithMenu(ctx context.Context, log *slog.Logger, chatID int64, lang, key string, args ...any) {
	out := transport.NewText(chatID, a.Localizer.Format(lang, key, args...))
	out.Menu = a.menu(lang)
	a.reply(ctx, log, out)
}

func (a *App) recoverUpdate(log *slog.Logger) {
	if r := recover(); r != nil {
		log.Error("Recovered from panic while handling update", "panic", fmt.Sprint(r))
	}
}

// HandleMessage processes one inbound message. It never panics.
func (a *App) HandleMessage(ctx context.Context, in models.Inbound) {
	log := a.logger().With("update_id", uuid.NewString(), "chat_id", in.ChatID, "user_id", in.Sender.ID)
	defer a.recoverUpdate(log)

	if in.Content == nil {
		in.Content = models.Unknown{Kind: "empty"}
	}
	log.Debug("Message received", "command", in.Command, "content_type", in.Content.Type())

	if in.Sender.ID == a.AdminID && a.handleAdminInput(ctx, log, in) {
		return
	}

	lang := a.lang(in.Sender)
	switch in.Command {
	case "start":
		a.handleStart(ctx, log, in, lang)
		return
	case "help":
		a.sayWithMenu(ctx, log, in.ChatID, lang, "help_text")
		return
	case "anon":
		a.startCompose(ctx, log, in, lang)
		return
	case "cancel":
		a.cancelCompose(ctx, log, in, lang)
		return
	}

	if in.Command == "" {
		switch text := in.Text(); {
		case a.Localizer.Matches("btn_write_anon", text):
			a.startCompose(ctx, log, in, lang)
			return
		case a.Localizer.Matches("btn_help", text):
			a.sayWithMenu(ctx, log, in.ChatID, lang, "help_text")
			return
		}
	}

	action, ok, err := a.Pending.Get(ctx, in.ChatID)
	if err != nil {
		log.Error("Failed to read pending action", "error", err)
		a.say(ctx, log, in.ChatID, lang, "internal_error")
		return
	}
	if ok && action.Kind == pending.Compose && in.Command == "" {
		if err := a.Pending.Clear(ctx, in.ChatID); err != nil {
			log.Warn("Failed to clear compose binding", "error", err)
		}
		a.submit(ctx, log, in, lang)
		return
	}

	a.sayWithMenu(ctx, log, in.ChatID, lang, "use_menu")
}

// handleAdminInput consumes the administrator's reply and /cancel while a
// reply binding is active. Menu button labels are never taken as a reply.
// It reports whether the message was consumed.
func (a *App) handleAdminInput(ctx context.Context, log *slog.Logger, in models.Inbound) bool {
	anonID, awaiting, err := a.Moderation.AwaitingReply(ctx)
	if err != nil {
		log.Error("Failed to read reply binding", "error", err)
		return false
	}
	if !awaiting {
		return false
	}

	switch in.Command {
	case "cancel":
		if err := a.Moderation.CancelReply(ctx); err != nil {
			log.Error("Failed to cancel reply", "error", err)
		}
		return true
	case "":
	default:
		return false
	}
	if text := in.Text(); a.Localizer.Matches("btn_write_anon", text) || a.Localizer.Matches("btn_help", text) {
		return false
	}

	err = a.Moderation.SendReply(ctx, anonID, in.Content)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrUnsupportedContent):
		log.Info("Reply not delivered", "anon_id", anonID, "reason", err)
	default:
		log.Error("Failed to send reply", "anon_id", anonID, "error", err)
	}
	return true
}

func (a *App) handleStart(ctx context.Context, log *slog.Logger, in models.Inbound, lang string) {
	if err := a.Store.UpsertUser(ctx, in.Sender.User()); err != nil {
		log.Error("Failed to register user", "error", err)
	}
	banned, err := a.Store.IsBanned(ctx, in.Sender.ID)
	if err != nil {
		log.Error("Failed to check ban", "error", err)
	}
	if banned {
		out := transport.NewText(in.ChatID, a.Localizer.GetString(lang, "banned_start"))
		out.RemoveMenu = true
		a.reply(ctx, log, out)
		return
	}
	a.sayWithMenu(ctx, log, in.ChatID, lang, "welcome")
}

func (a *App) startCompose(ctx context.Context, log *slog.Logger, in models.Inbound, lang string) {
	banned, err := a.Store.IsBanned(ctx, in.Sender.ID)
	if err != nil {
		log.Error("Failed to check ban", "error", err)
		a.say(ctx, log, in.ChatID, lang, "internal_error")
		return
	}
	if banned {
		a.say(ctx, log, in.ChatID, lang, "banned")
		return
	}

	out := transport.NewText(in.ChatID, a.Localizer.GetString(lang, "compose_prompt"))
	out.RemoveMenu = true
	ref, err := a.Transport.Send(ctx, out)
	if err != nil {
		log.Error("Failed to send compose prompt", "error", err)
		return
	}
	if err := a.Pending.Set(ctx, in.ChatID, pending.Action{Kind: pending.Compose, PromptMessageID: ref.MessageID}); err != nil {
		log.Error("Failed to store compose binding", "error", err)
		a.sayWithMenu(ctx, log, in.ChatID, lang, "internal_error")
	}
}

func (a *App) cancelCompose(ctx context.Context, log *slog.Logger, in models.Inbound, lang string) {
	action, ok, err := a.Pending.Get(ctx, in.ChatID)
	if err != nil {
		log.Error("Failed to read pending action", "error", err)
	}
	if !ok || action.Kind != pending.Compose {
		a.sayWithMenu(ctx, log, in.ChatID, lang, "nothing_to_cancel")
		return
	}
	if err := a.Pending.Clear(ctx, in.ChatID); err != nil {
		log.Warn("Failed to clear compose binding", "error", err)
	}
	a.sayWithMenu(ctx, log, in.ChatID, lang, "welcome")
}

func (a *App) submit(ctx context.Context, log *slog.Logger, in models.Inbound, lang string) {
	sub, err := a.Engine.Submit(ctx, in.Sender, in.Content)
	switch {
	case err == nil:
		log.Info("Submission relayed", "anon_id", sub.AnonID)
		a.sayWithMenu(ctx, log, in.ChatID, lang, "submit_confirmed", sub.AnonID)
	case errors.Is(err, models.ErrBanned):
		log.Info("Submission from banned user rejected")
		a.say(ctx, log, in.ChatID, lang, "banned")
	case errors.Is(err, models.ErrRateLimited):
		log.Info("Submission rate limited")
		a.sayWithMenu(ctx, log, in.ChatID, lang, "rate_limited")
	default:
		log.Error("Failed to relay submission", "error", err)
		a.sayWithMenu(ctx, log, in.ChatID, lang, "submit_failed")
	}
}

// HandleCallback processes one inline button press. Only the administrator may
// trigger moderation actions. Every callback is answered exactly once.
func (a *App) HandleCallback(ctx context.Context, cb models.Callback) {
	log := a.logger().With("update_id", uuid.NewString(), "callback_id", cb.ID, "user_id", cb.Sender.ID)
	defer a.recoverUpdate(log)

	lang := a.lang(cb.Sender)
	if cb.Sender.ID != a.AdminID {
		log.Warn("Rejected moderation action from non-admin", "data", cb.Data)
		a.answer(ctx, log, cb.ID, a.Localizer.GetString(lang, "action_forbidden"))
		return
	}

	action, err := models.ParseAction(cb.Data)
	if err != nil {
		log.Warn("Invalid callback data", "data", cb.Data, "error", err)
		a.answer(ctx, log, cb.ID, a.Localizer.GetString(lang, "action_invalid"))
		return
	}

	switch action.Verb {
	case models.VerbReply:
		err = a.Moderation.OnReplyAction(ctx, cb.ID, action.AnonID)
	case models.VerbBan:
		err = a.Moderation.OnBanAction(ctx, cb.ID, action.UserID)
	case models.VerbDone:
		err = a.Moderation.OnDoneAction(ctx, cb.ID, action.AnonID)
	}
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		log.Error("Moderation action failed", "action", cb.Data, "error", err)
	}
}

func (a *App) answer(ctx context.Context, log *slog.Logger, callbackID, text string) {
	if err := a.Transport.AnswerCallback(ctx, callbackID, text); err != nil {
		log.Warn("Failed to answer callback", "error", err)
	}
}

// NotifyStarted tells the administrator the bot is up. Failures are only logged.
func (a *App) NotifyStarted(ctx context.Context) {
	lang := a.DefaultLanguage
	if _, err := a.Transport.Send(ctx, transport.NewText(a.AdminID, a.Localizer.GetString(lang, "bot_started"))); err != nil {
		a.logger().Warn("Failed to send startup notice to admin", "error", err)
	}
}
