package handler

import (
	"context"

	"github.com/artur/whyspent-bot/internal/bot"
	"github.com/artur/whyspent-bot/internal/i18n"
	"github.com/artur/whyspent-bot/internal/keyboard"
)

type SettingsHandler struct {
	users UserReader
}

func NewSettingsHandler(users UserReader) *SettingsHandler {
	return &SettingsHandler{users: users}
}

func (h *SettingsHandler) CanHandle(ev bot.Event) bool {
	return ev.IsCommand("settings")
}

func (h *SettingsHandler) Handle(ctx context.Context, api bot.Sender, ev bot.Event) {
	lang := userLanguage(h.users, ev)
	text := i18n.Lines(lang, "settings.title", "", "settings.language")
	reply(api, ev, text, keyboard.Language())
}
