package ai

import (
	"context"
	"fmt"

	"github.com/artur/whyspent-bot/internal/database/models"
	"github.com/artur/whyspent-bot/internal/logger"
)

const (
	historyLimit = 20

	systemPrompt = "You are the WhySpent assistant. WhySpent is a Telegram mini app for " +
		"tracking personal expenses. Answer briefly and help users reflect on their spending."

	notConfiguredReply = "AI features are not configured. Please contact the administrator."
)

// Completer produces a reply for a conversation.
type Completer interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

// History stores conversation turns.
type History interface {
	Append(userID int64, role models.Role, content string) error
	Recent(userID int64, limit int) ([]models.HistoryMessage, error)
}

type Service struct {
	completer Completer
	history   History
	available bool
}

// NewService creates the AI service. A nil completer or available=false makes
// the service report itself unavailable.
func NewService(completer Completer, history History, available bool) *Service {
	return &Service{
		completer: completer,
		history:   history,
		available: available && completer != nil,
	}
}

func (s *Service) Available() bool {
	return s != nil && s.available
}

// Reply generates an answer using the user's recent history and stores both
// turns.
func (s *Service) Reply(ctx context.Context, userID int64, text string) (string, error) {
	if !s.Available() {
		return notConfiguredReply, nil
	}
	log := logger.For("ai")

	past, err := s.history.Recent(userID, historyLimit)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("history unavailable, replying without context")
		past = nil
	}

	messages := make([]ChatMessage, 0, len(past)+2)
	messages = append(messages, ChatMessage{Role: string(models.RoleSystem), Content: systemPrompt})
	for _, m := range past {
		messages = append(messages, ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	messages = append(messages, ChatMessage{Role: string(models.RoleUser), Content: text})

	reply, err := s.completer.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}

	if err := s.history.Append(userID, models.RoleUser, text); err != nil {
		log.Warn().Err(err).Msg("failed to store user turn")
	}
	if err := s.history.Append(userID, models.RoleAssistant, reply); err != nil {
		log.Warn().Err(err).Msg("failed to store assistant turn")
	}

	return reply, nil
}
