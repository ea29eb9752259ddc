package handler

import (
	"context"

	"github.com/artur/whyspent-bot/internal/bot"
	"github.com/artur/whyspent-bot/internal/database/models"
	"github.com/artur/whyspent-bot/internal/flags"
	"github.com/artur/whyspent-bot/internal/i18n"
	"github.com/artur/whyspent-bot/internal/logger"
)

// FeedbackSaver stores feedback messages.
type FeedbackSaver interface {
	Save(userID int64, message string) error
}

// TextHandler routes free text by the sender's state: feedback capture, AI
// chat, or a hint to open the mini app. It accepts any message, so register
// it last.
type TextHandler struct {
	users     UserReader
	flags     *flags.Accessor
	feedback  FeedbackSaver
	responder Responder
}

func NewTextHandler(users UserReader, flags *flags.Accessor, feedback FeedbackSaver, responder Responder) *TextHandler {
	return &TextHandler{
		users:     users,
		flags:     flags,
		feedback:  feedback,
		responder: responder,
	}
}

func (h *TextHandler) CanHandle(ev bot.Event) bool {
	return ev.Kind == bot.KindText || ev.Kind == bot.KindCommand
}

func (h *TextHandler) Handle(ctx context.Context, api bot.Sender, ev bot.Event) {
	log := logger.For("text")

	if ev.From == nil || ev.Text == "" {
		return
	}
	userID := ev.From.ID
	lang := userLanguage(h.users, ev)

	if h.flags.Get(userID, models.FlagFeedbackMode) {
		err := h.feedback.Save(userID, ev.Text)
		h.flags.Set(userID, models.FlagFeedbackMode, false)
		if err != nil {
			log.Error().Err(err).Int64("user_id", userID).Msg("failed to save feedback")
			reply(api, ev, i18n.T(lang, "error.generic"), nil)
			return
		}
		log.Info().Int64("user_id", userID).Msg("feedback received")
		reply(api, ev, i18n.T(lang, "feedback.received"), nil)
		return
	}

	if h.flags.Get(userID, models.FlagAIEnabled) && h.responder != nil && h.responder.Available() {
		out, err := h.responder.Reply(ctx, userID, ev.Text)
		if err != nil {
			log.Error().Err(err).Int64("user_id", userID).Msg("ai reply failed")
			reply(api, ev, i18n.T(lang, "error.generic"), nil)
			return
		}
		reply(api, ev, out, nil)
		return
	}

	reply(api, ev, i18n.T(lang, "hint.use_open"), nil)
}
