package handler

import (
	"context"

	"github.com/artur/whyspent-bot/internal/bot"
	"github.com/artur/whyspent-bot/internal/database/models"
	"github.com/artur/whyspent-bot/internal/flags"
	"github.com/artur/whyspent-bot/internal/i18n"
)

// FeedbackHandler puts the user into feedback mode; the next text message is
// captured by TextHandler.
type FeedbackHandler struct {
	users UserReader
	flags *flags.Accessor
}

func NewFeedbackHandler(users UserReader, flags *flags.Accessor) *FeedbackHandler {
	return &FeedbackHandler{users: users, flags: flags}
}

func (h *FeedbackHandler) CanHandle(ev bot.Event) bool {
	return ev.IsCommand("feedback")
}

func (h *FeedbackHandler) Handle(ctx context.Context, api bot.Sender, ev bot.Event) {
	if ev.From == nil {
		return
	}
	lang := userLanguage(h.users, ev)

	h.flags.Set(ev.From.ID, models.FlagFeedbackMode, true)

	reply(api, ev, i18n.T(lang, "feedback.prompt"), nil)
}
