package broadcast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/artur/whyspent-bot/internal/database/models"
	"github.com/artur/whyspent-bot/internal/i18n"
	"github.com/artur/whyspent-bot/internal/logger"
)

// ErrNoMessage is returned when a directive carries an empty message.
var ErrNoMessage = errors.New("broadcast message is empty")

// Sender delivers one message. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// UserSource resolves broadcast targets.
type UserSource interface {
	ListAll() ([]models.User, error)
	ListByLanguage(language string) ([]models.User, error)
}

// AuditLog records completed broadcasts.
type AuditLog interface {
	Record(entry models.BroadcastLog) error
}

// Result summarizes one fan-out run.
type Result struct {
	Total    int
	Success  int
	Failed   int
	Duration time.Duration
}

// DurationSeconds is the duration rounded to whole seconds.
func (r Result) DurationSeconds() int {
	return int(math.Round(r.Duration.Seconds()))
}

// Service sends one message to many users, one at a time, paced below the
// Telegram outbound limit.
type Service struct {
	sender Sender
	users  UserSource
	audit  AuditLog
	delay  time.Duration
	now    func() time.Time
	sleep  func(time.Duration)
}

// NewService creates a broadcaster limited to ratePerSecond messages.
func NewService(sender Sender, users UserSource, audit AuditLog, ratePerSecond int) *Service {
	return &Service{
		sender: sender,
		users:  users,
		audit:  audit,
		delay:  Delay(ratePerSecond),
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Delay is the pause after each send for the given ceiling,
// ceil(1000ms / ratePerSecond). 30/s gives 34ms.
func Delay(ratePerSecond int) time.Duration {
	if ratePerSecond <= 0 {
		return 0
	}
	ms := math.Ceil(1000 / float64(ratePerSecond))
	return time.Duration(ms) * time.Millisecond
}

// Broadcast sends message to every user in order, pausing for the fixed
// delay after every attempt, the last one included. A failed send is logged
// and counted; it never stops the run. Cancellation of ctx is ignored: a
// started broadcast always runs to completion.
func (s *Service) Broadcast(ctx context.Context, message string, users []models.User) Result {
	log := logger.For("broadcast")

	result := Result{Total: len(users)}
	start := s.now()

	for _, user := range users {
		msg := tgbotapi.NewMessage(user.ID, message)
		msg.ParseMode = tgbotapi.ModeHTML

		if _, err := s.sender.Send(msg); err != nil {
			log.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to deliver")
			result.Failed++
		} else {
			result.Success++
		}

		if s.delay > 0 {
			s.sleep(s.delay)
		}
	}

	result.Duration = s.now().Sub(start)
	return result
}

// ToAll broadcasts to every known user and records the run.
func (s *Service) ToAll(ctx context.Context, adminID int64, message string) (Result, error) {
	users, err := s.users.ListAll()
	if err != nil {
		return Result{}, fmt.Errorf("resolve targets: %w", err)
	}
	return s.run(ctx, adminID, message, "all", users), nil
}

// ToLanguage broadcasts to users whose language is exactly lang.
func (s *Service) ToLanguage(ctx context.Context, adminID int64, lang, message string) (Result, error) {
	users, err := s.users.ListByLanguage(lang)
	if err != nil {
		return Result{}, fmt.Errorf("resolve targets: %w", err)
	}
	return s.run(ctx, adminID, message, "lang:"+lang, users), nil
}

// Execute runs a parsed non-preview directive.
func (s *Service) Execute(ctx context.Context, adminID int64, d Directive) (Result, error) {
	if d.Message == "" {
		return Result{}, ErrNoMessage
	}
	if d.Type == TypeLang {
		return s.ToLanguage(ctx, adminID, d.Language, d.Message)
	}
	return s.ToAll(ctx, adminID, d.Message)
}

// Preview sends the message to the admin only. Nothing is recorded.
func (s *Service) Preview(ctx context.Context, adminID int64, message string) error {
	text := i18n.T(i18n.Default, "broadcast.preview_label") + "\n\n" + message

	msg := tgbotapi.NewMessage(adminID, text)
	msg.ParseMode = tgbotapi.ModeHTML

	if _, err := s.sender.Send(msg); err != nil {
		return fmt.Errorf("send preview: %w", err)
	}
	return nil
}

func (s *Service) run(ctx context.Context, adminID int64, message, target string, users []models.User) Result {
	log := logger.For("broadcast")
	log.Info().Int64("admin_id", adminID).Str("target", target).Int("recipients", len(users)).Msg("broadcast started")

	result := s.Broadcast(ctx, message, users)

	err := s.audit.Record(models.BroadcastLog{
		AdminID:      adminID,
		Message:      message,
		TargetFilter: target,
		SuccessCount: result.Success,
		FailCount:    result.Failed,
		CreatedAt:    s.now(),
	})
	if err != nil {
		log.Error().Err(err).Str("target", target).Msg("failed to record broadcast")
	}

	log.Info().
		Str("target", target).
		Int("total", result.Total).
		Int("success", result.Success).
		Int("failed", result.Failed).
		Dur("duration", result.Duration).
		Msg("broadcast complete")

	return result
}
