package handler

import (
	"context"
	"strings"

	"github.com/artur/whyspent-bot/internal/bot"
	"github.com/artur/whyspent-bot/internal/i18n"
	"github.com/artur/whyspent-bot/internal/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	languagePrefix   = "lang:"
	donateInfoAction = "donate_info"
)

// LanguageStore persists the language chosen from the settings keyboard.
type LanguageStore interface {
	UserReader
	SetLanguage(userID int64, language string) error
}

// CallbackHandler answers inline keyboard presses.
type CallbackHandler struct {
	users LanguageStore
}

func NewCallbackHandler(users LanguageStore) *CallbackHandler {
	return &CallbackHandler{users: users}
}

func (h *CallbackHandler) CanHandle(ev bot.Event) bool {
	return ev.Kind == bot.KindCallback
}

func (h *CallbackHandler) Handle(ctx context.Context, api bot.Sender, ev bot.Event) {
	log := logger.For("callback")

	if ev.From == nil || ev.Data == "" {
		answer(api, ev, "")
		return
	}

	if code, ok := strings.CutPrefix(ev.Data, languagePrefix); ok {
		if !i18n.IsSupported(code) {
			answer(api, ev, i18n.T(i18n.Default, "settings.invalid_language"))
			return
		}
		if err := h.users.SetLanguage(ev.From.ID, code); err != nil {
			log.Error().Err(err).Int64("user_id", ev.From.ID).Msg("failed to set language")
			answer(api, ev, i18n.T(i18n.Default, "error.generic"))
			return
		}
		log.Info().Int64("user_id", ev.From.ID).Str("language", code).Msg("language changed")

		answer(api, ev, i18n.T(code, "settings.language_selected"))

		edit := tgbotapi.NewEditMessageText(ev.ChatID, ev.MessageID, i18n.T(code, "settings.language_changed"))
		if _, err := api.Send(edit); err != nil {
			log.Error().Err(err).Msg("failed to edit settings message")
		}
		return
	}

	if ev.Data == donateInfoAction {
		answer(api, ev, "")
		lang := userLanguage(h.users, ev)
		reply(api, ev, i18n.Lines(lang, "donate.title", "", "donate.message"), nil)
		return
	}

	answer(api, ev, "")
}

func answer(api bot.Sender, ev bot.Event, text string) {
	if _, err := api.Request(tgbotapi.NewCallback(ev.CallbackID, text)); err != nil {
		log := logger.For("callback")
		log.Error().Err(err).Msg("failed to answer callback")
	}
}
