package handler

import (
	"github.com/artur/whyspent-bot/internal/bot"
	"github.com/artur/whyspent-bot/internal/database/models"
	"github.com/artur/whyspent-bot/internal/i18n"
	"github.com/artur/whyspent-bot/internal/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// UserReader looks up stored users.
type UserReader interface {
	GetByID(userID int64) (*models.User, error)
}

// AdminCheck reports whether a Telegram user is an administrator.
type AdminCheck func(userID int64) bool

// userLanguage returns the stored language of the sender, or the default.
func userLanguage(users UserReader, ev bot.Event) string {
	if users == nil || ev.UserID() == 0 {
		return i18n.Default
	}
	user, err := users.GetByID(ev.UserID())
	if err != nil || user == nil {
		return i18n.Default
	}
	return i18n.Normalize(user.Language)
}

// telegramLanguage uses the client language, for screens shown before the
// user picked one.
func telegramLanguage(ev bot.Event) string {
	return i18n.Normalize(ev.LanguageCode())
}

func reply(api bot.Sender, ev bot.Event, text string, markup any) {
	msg := tgbotapi.NewMessage(ev.ChatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := api.Send(msg); err != nil {
		log := logger.For("handler")
		log.Error().Err(err).Int64("chat_id", ev.ChatID).Msg("failed to send message")
	}
}
