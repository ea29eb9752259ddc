package handler

import (
	"context"
	"strings"

	"github.com/artur/whyspent-bot/internal/bot"
	"github.com/artur/whyspent-bot/internal/database/models"
	"github.com/artur/whyspent-bot/internal/flags"
	"github.com/artur/whyspent-bot/internal/i18n"
)

// Responder generates conversational replies.
type Responder interface {
	Available() bool
	Reply(ctx context.Context, userID int64, text string) (string, error)
}

// AIHandler handles /ai, /ai on and /ai off.
type AIHandler struct {
	users     UserReader
	flags     *flags.Accessor
	responder Responder
}

func NewAIHandler(users UserReader, flags *flags.Accessor, responder Responder) *AIHandler {
	return &AIHandler{users: users, flags: flags, responder: responder}
}

func (h *AIHandler) CanHandle(ev bot.Event) bool {
	return ev.IsCommand("ai")
}

func (h *AIHandler) Handle(ctx context.Context, api bot.Sender, ev bot.Event) {
	if ev.From == nil {
		return
	}
	userID := ev.From.ID
	lang := userLanguage(h.users, ev)

	action := strings.ToLower(strings.TrimSpace(ev.Args))
	if action != "" && action != "on" && action != "off" {
		reply(api, ev, i18n.T(lang, "ai.usage"), nil)
		return
	}

	if !h.responder.Available() {
		reply(api, ev, i18n.T(lang, "ai.not_available"), nil)
		return
	}

	var enabled bool
	switch action {
	case "on":
		enabled = true
		h.flags.Set(userID, models.FlagAIEnabled, true)
	case "off":
		h.flags.Set(userID, models.FlagAIEnabled, false)
	default:
		var ok bool
		enabled, ok = h.flags.Toggle(userID, models.FlagAIEnabled)
		if !ok {
			return
		}
	}

	if enabled {
		reply(api, ev, i18n.T(lang, "ai.enabled"), nil)
	} else {
		reply(api, ev, i18n.T(lang, "ai.disabled"), nil)
	}
}
