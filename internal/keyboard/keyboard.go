package keyboard

import (
	"net/url"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/artur/whyspent-bot/internal/i18n"
)

// Button mirrors the Bot API InlineKeyboardButton including the web_app
// field, which the tgbotapi types predate.
type Button struct {
	Text         string      `json:"text"`
	URL          string      `json:"url,omitempty"`
	CallbackData string      `json:"callback_data,omitempty"`
	WebApp       *WebAppInfo `json:"web_app,omitempty"`
}

type WebAppInfo struct {
	URL string `json:"url"`
}

// Markup is an inline keyboard that may contain web app buttons. It can be
// assigned to any ReplyMarkup field of tgbotapi send configs.
type Markup struct {
	InlineKeyboard [][]Button `json:"inline_keyboard"`
}

// MiniAppURL appends the startapp parameter used for deep linking.
func MiniAppURL(base, startParam string) string {
	if startParam == "" {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "startapp=" + url.QueryEscape(startParam)
}

// MiniAppButton builds a button opening the mini app. t.me links open as
// plain URLs, anything else as a web app.
func MiniAppButton(base, text, startParam string) Button {
	link := MiniAppURL(base, startParam)
	if strings.HasPrefix(base, "https://t.me/") {
		return Button{Text: text, URL: link}
	}
	return Button{Text: text, WebApp: &WebAppInfo{URL: link}}
}

// MiniApp is a single-button keyboard for /open.
func MiniApp(base, text, startParam string) Markup {
	return Markup{InlineKeyboard: [][]Button{{MiniAppButton(base, text, startParam)}}}
}

// Onboarding is shown with the welcome message.
func Onboarding(miniAppURL, updatesChannelURL, lang string) Markup {
	rows := [][]Button{{MiniAppButton(miniAppURL, i18n.T(lang, "open.button"), "")}}
	if updatesChannelURL != "" {
		rows = append(rows, []Button{{Text: i18n.T(lang, "onboarding.updates_button"), URL: updatesChannelURL}})
	}
	return Markup{InlineKeyboard: rows}
}

// Language lets the user pick one of the supported languages.
func Language() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🇺🇸 English", "lang:"+i18n.English),
			tgbotapi.NewInlineKeyboardButtonData("🇷🇺 Русский", "lang:"+i18n.Russian),
		),
	)
}

// Channel links to the updates channel.
func Channel(channelURL, text string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(text, channelURL)),
	)
}
