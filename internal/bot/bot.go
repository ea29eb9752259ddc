package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/artur/whyspent-bot/internal/database/models"
	"github.com/artur/whyspent-bot/internal/i18n"
	"github.com/artur/whyspent-bot/internal/logger"
)

// WebhookPath is where Telegram posts updates in webhook mode.
const WebhookPath = "/telegram/webhook"

// Sender is the part of the Bot API used by handlers. *tgbotapi.BotAPI
// satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Handler interface {
	CanHandle(ev Event) bool
	Handle(ctx context.Context, api Sender, ev Event)
}

// Gate decides whether a user's update may be processed.
type Gate interface {
	Allow(userID int64) bool
}

// UserTracker records the sender of every processed update.
type UserTracker interface {
	UpsertFromTelegram(tgUser *tgbotapi.User) (*models.User, error)
}

type Options struct {
	Gate     Gate
	Users    UserTracker
	AdminIDs []int64
}

type Bot struct {
	api      Sender
	raw      *tgbotapi.BotAPI
	handlers []Handler
	gate     Gate
	users    UserTracker
	admins   []int64
}

func New(token string, opts Options) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log := logger.For("bot")
	log.Info().Str("account", api.Self.UserName).Msg("authorized")

	b := NewWithSender(api, opts)
	b.raw = api
	return b, nil
}

// NewWithSender builds a bot around an arbitrary sender. Run needs a real
// *tgbotapi.BotAPI; everything else works with any Sender.
func NewWithSender(api Sender, opts Options) *Bot {
	return &Bot{
		api:      api,
		handlers: make([]Handler, 0),
		gate:     opts.Gate,
		users:    opts.Users,
		admins:   opts.AdminIDs,
	}
}

// API exposes the sender for services that post outside a handler.
func (b *Bot) API() Sender {
	return b.api
}

func (b *Bot) RegisterHandler(h Handler) {
	b.handlers = append(b.handlers, h)
	log := logger.For("bot")
	log.Debug().Str("handler", fmt.Sprintf("%T", h)).Msg("registered handler")
}

// RegisterCommands publishes the command menu shown by Telegram clients.
func (b *Bot) RegisterCommands() error {
	cfg := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Start the bot"},
		tgbotapi.BotCommand{Command: "donate", Description: "Support development"},
	)
	if _, err := b.api.Request(cfg); err != nil {
		return fmt.Errorf("set commands: %w", err)
	}
	return nil
}

// SendStartupNotification tells every admin the bot is up.
func (b *Bot) SendStartupNotification(mode string) {
	log := logger.For("bot")
	text := i18n.T(i18n.Default, "admin.started", i18n.Params{"mode": mode})
	for _, id := range b.admins {
		if _, err := b.api.Send(tgbotapi.NewMessage(id, text)); err != nil {
			log.Warn().Err(err).Int64("admin_id", id).Msg("failed to send startup notification")
		}
	}
}

// HandleUpdate runs the full pipeline for one update synchronously and
// reports whether a handler ran.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) bool {
	h, ev, ok := b.route(update)
	if !ok {
		return false
	}
	h.Handle(ctx, b.api, ev)
	return true
}

// route decodes the update, applies the rate limit, refreshes the sender's
// user row and picks the first matching handler.
func (b *Bot) route(update tgbotapi.Update) (Handler, Event, bool) {
	log := logger.For("bot")
	ev := Decode(update)

	switch ev.Kind {
	case KindCommand, KindText:
		log.Info().Int64("user_id", ev.UserID()).Str("kind", ev.Kind.String()).Str("text", ev.Text).Msg("message")
	case KindCallback:
		log.Info().Int64("user_id", ev.UserID()).Str("data", ev.Data).Msg("callback")
	default:
		log.Debug().Int("update_id", update.UpdateID).Msg("skipping update: no message or callback")
		return nil, ev, false
	}

	if ev.From != nil && b.gate != nil && !b.gate.Allow(ev.From.ID) {
		log.Warn().Int64("user_id", ev.From.ID).Msg("rate limited")
		b.rejectRateLimited(ev)
		return nil, ev, false
	}

	if ev.From != nil && b.users != nil {
		if _, err := b.users.UpsertFromTelegram(ev.From); err != nil {
			log.Error().Err(err).Int64("user_id", ev.From.ID).Msg("failed to upsert user")
		}
	}

	for _, h := range b.handlers {
		if h.CanHandle(ev) {
			log.Debug().Str("handler", fmt.Sprintf("%T", h)).Msg("handling")
			return h, ev, true
		}
	}

	log.Debug().Msg("no handler found for update")
	return nil, ev, false
}

func (b *Bot) rejectRateLimited(ev Event) {
	text := i18n.T(i18n.Normalize(ev.LanguageCode()), "error.rate_limited")

	var err error
	switch {
	case ev.Kind == KindCallback:
		_, err = b.api.Request(tgbotapi.NewCallback(ev.CallbackID, text))
	case ev.ChatID != 0:
		_, err = b.api.Send(tgbotapi.NewMessage(ev.ChatID, text))
	}
	if err != nil {
		log := logger.For("bot")
		log.Warn().Err(err).Msg("failed to send rate limit notice")
	}
}

// Run receives updates until ctx is cancelled. With a non-empty webhookURL
// updates arrive over HTTP on addr, otherwise via long polling.
func (b *Bot) Run(ctx context.Context, webhookURL, addr string) error {
	if b.raw == nil {
		return errors.New("bot: Run requires a Telegram API client")
	}
	log := logger.For("bot")
	log.Info().Int("handlers", len(b.handlers)).Bool("webhook", webhookURL != "").Msg("starting bot")

	var updates <-chan tgbotapi.Update
	var stop func()
	var err error
	if webhookURL != "" {
		updates, stop, err = b.listenWebhook(ctx, webhookURL, addr)
	} else {
		updates, stop, err = b.poll()
	}
	if err != nil {
		return err
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("bot stopped")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if h, ev, ok := b.route(update); ok {
				go h.Handle(ctx, b.api, ev)
			}
		}
	}
}

func (b *Bot) poll() (<-chan tgbotapi.Update, func(), error) {
	// A leftover webhook makes getUpdates fail.
	if _, err := b.raw.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return nil, nil, fmt.Errorf("delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	return b.raw.GetUpdatesChan(u), b.raw.StopReceivingUpdates, nil
}

func (b *Bot) listenWebhook(ctx context.Context, webhookURL, addr string) (<-chan tgbotapi.Update, func(), error) {
	log := logger.For("bot")

	link := strings.TrimRight(webhookURL, "/")
	if !strings.HasSuffix(link, WebhookPath) {
		link += WebhookPath
	}
	wh, err := tgbotapi.NewWebhook(link)
	if err != nil {
		return nil, nil, fmt.Errorf("build webhook: %w", err)
	}
	if _, err := b.raw.Request(wh); err != nil {
		return nil, nil, fmt.Errorf("set webhook: %w", err)
	}

	updates := make(chan tgbotapi.Update, 100)
	srv := &http.Server{
		Addr:              addr,
		Handler:           webhookMux(ctx, b.raw.HandleUpdate, updates),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Str("path", WebhookPath).Msg("webhook server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("webhook server failed")
		}
	}()

	stop := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("webhook server shutdown")
		}
	}
	return updates, stop, nil
}

// webhookMux serves the health check and the webhook endpoint.
func webhookMux(ctx context.Context, parse func(*http.Request) (*tgbotapi.Update, error), out chan<- tgbotapi.Update) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("WhySpent Bot Webhook is running!"))
	})

	mux.HandleFunc("POST "+WebhookPath, func(w http.ResponseWriter, r *http.Request) {
		update, err := parse(r)
		if err != nil {
			log := logger.For("bot")
			log.Warn().Err(err).Msg("bad webhook payload")
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		select {
		case out <- *update:
		case <-ctx.Done():
		}
		w.WriteHeader(http.StatusOK)
	})

	return mux
}
