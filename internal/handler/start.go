package handler

import (
	"context"

	"github.com/artur/whyspent-bot/internal/bot"
	"github.com/artur/whyspent-bot/internal/i18n"
	"github.com/artur/whyspent-bot/internal/keyboard"
	"github.com/artur/whyspent-bot/internal/logger"
)

type StartHandler struct {
	miniAppURL        string
	updatesChannelURL string
}

func NewStartHandler(miniAppURL, updatesChannelURL string) *StartHandler {
	return &StartHandler{
		miniAppURL:        miniAppURL,
		updatesChannelURL: updatesChannelURL,
	}
}

func (h *StartHandler) CanHandle(ev bot.Event) bool {
	return ev.IsCommand("start")
}

func (h *StartHandler) Handle(ctx context.Context, api bot.Sender, ev bot.Event) {
	log := logger.For("start")

	if ev.From == nil {
		reply(api, ev, i18n.T(i18n.Default, "error.generic"), nil)
		return
	}

	lang := telegramLanguage(ev)

	// Deep link payload, e.g. t.me/bot?start=ref
	if ev.Args != "" {
		log.Info().Int64("user_id", ev.From.ID).Str("param", ev.Args).Msg("started with parameter")
	}

	log.Info().Str("user", getUserName(ev.From.FirstName, ev.From.UserName)).Msg("greeting user")

	text := i18n.Lines(lang, "welcome.title", "", "welcome.message", "", "welcome.cta")
	reply(api, ev, text, keyboard.Onboarding(h.miniAppURL, h.updatesChannelURL, lang))
}

func getUserName(firstName, userName string) string {
	if firstName != "" {
		return firstName
	}
	return userName
}
