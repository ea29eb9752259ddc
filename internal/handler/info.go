package handler

import (
	"context"

	"github.com/artur/whyspent-bot/internal/bot"
	"github.com/artur/whyspent-bot/internal/i18n"
)

// InfoHandler answers a command with static localized text.
type InfoHandler struct {
	command string
	keys    []string
	users   UserReader
}

// NewInfoHandler replies to /command with the translations of keys joined by
// newlines. An empty key produces a blank line.
func NewInfoHandler(command string, users UserReader, keys ...string) *InfoHandler {
	return &InfoHandler{command: command, keys: keys, users: users}
}

func NewHelpHandler(users UserReader) *InfoHandler {
	return NewInfoHandler("help", users, "help.title", "help.commands")
}

func NewPrivacyHandler(users UserReader) *InfoHandler {
	return NewInfoHandler("privacy", users, "privacy.title", "", "privacy.message")
}

func NewDonateHandler(users UserReader) *InfoHandler {
	return NewInfoHandler("donate", users, "donate.title", "", "donate.message")
}

func (h *InfoHandler) CanHandle(ev bot.Event) bool {
	return ev.IsCommand(h.command)
}

func (h *InfoHandler) Handle(ctx context.Context, api bot.Sender, ev bot.Event) {
	lang := userLanguage(h.users, ev)
	reply(api, ev, i18n.Lines(lang, h.keys...), nil)
}
