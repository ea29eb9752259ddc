package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Kind tells which variant of Event is populated.
type Kind int

const (
	KindUnknown Kind = iota
	KindCommand
	KindText
	KindCallback
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindText:
		return "text"
	case KindCallback:
		return "callback"
	default:
		return "unknown"
	}
}

// Event is an inbound update decoded once at the transport boundary.
type Event struct {
	Kind Kind
	From *tgbotapi.User

	ChatID    int64
	MessageID int

	// Command and Args are set for KindCommand; Text for commands and text.
	Command string
	Args    string
	Text    string

	// Set for KindCallback.
	CallbackID string
	Data       string

	Update tgbotapi.Update
}

// UserID is the sender's Telegram ID, 0 when the update has no sender.
func (e Event) UserID() int64 {
	if e.From == nil {
		return 0
	}
	return e.From.ID
}

// LanguageCode is the sender's Telegram client language.
func (e Event) LanguageCode() string {
	if e.From == nil {
		return ""
	}
	return e.From.LanguageCode
}

// IsCommand reports whether the event is the given bot command.
func (e Event) IsCommand(name string) bool {
	return e.Kind == KindCommand && e.Command == name
}

// Decode converts a raw update into an Event.
func Decode(update tgbotapi.Update) Event {
	ev := Event{Update: update}

	switch {
	case update.Message != nil:
		m := update.Message
		ev.From = m.From
		ev.MessageID = m.MessageID
		if m.Chat != nil {
			ev.ChatID = m.Chat.ID
		}
		ev.Text = m.Text
		if m.IsCommand() {
			ev.Kind = KindCommand
			ev.Command = m.Command()
			ev.Args = m.CommandArguments()
		} else if m.Text != "" {
			ev.Kind = KindText
		}

	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		ev.Kind = KindCallback
		ev.From = cb.From
		ev.CallbackID = cb.ID
		ev.Data = cb.Data
		if cb.Message != nil {
			ev.MessageID = cb.Message.MessageID
			if cb.Message.Chat != nil {
				ev.ChatID = cb.Message.Chat.ID
			}
		}
	}

	return ev
}
