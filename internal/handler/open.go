package handler

import (
	"context"

	"github.com/artur/whyspent-bot/internal/bot"
	"github.com/artur/whyspent-bot/internal/i18n"
	"github.com/artur/whyspent-bot/internal/keyboard"
)

type OpenHandler struct {
	miniAppURL string
	users      UserReader
}

func NewOpenHandler(miniAppURL string, users UserReader) *OpenHandler {
	return &OpenHandler{miniAppURL: miniAppURL, users: users}
}

func (h *OpenHandler) CanHandle(ev bot.Event) bool {
	return ev.IsCommand("open")
}

func (h *OpenHandler) Handle(ctx context.Context, api bot.Sender, ev bot.Event) {
	lang := userLanguage(h.users, ev)
	markup := keyboard.MiniApp(h.miniAppURL, i18n.T(lang, "open.button"), ev.Args)
	reply(api, ev, i18n.T(lang, "open.message"), markup)
}
