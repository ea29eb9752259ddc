package handler

import (
	"context"

	"github.com/artur/whyspent-bot/internal/bot"
	"github.com/artur/whyspent-bot/internal/i18n"
	"github.com/artur/whyspent-bot/internal/keyboard"
)

type ChannelHandler struct {
	channelURL string
}

func NewChannelHandler(channelURL string) *ChannelHandler {
	return &ChannelHandler{channelURL: channelURL}
}

func (h *ChannelHandler) CanHandle(ev bot.Event) bool {
	return ev.IsCommand("channel")
}

func (h *ChannelHandler) Handle(ctx context.Context, api bot.Sender, ev bot.Event) {
	lang := telegramLanguage(ev)
	text := i18n.Lines(lang, "channel.title", "", "channel.message", "", "channel.cta")
	reply(api, ev, text, keyboard.Channel(h.channelURL, i18n.T(lang, "channel.button")))
}
