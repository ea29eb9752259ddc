package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/artur/whyspent-bot/internal/ai"
	"github.com/artur/whyspent-bot/internal/bot"
	"github.com/artur/whyspent-bot/internal/broadcast"
	"github.com/artur/whyspent-bot/internal/config"
	"github.com/artur/whyspent-bot/internal/database"
	"github.com/artur/whyspent-bot/internal/database/repository"
	"github.com/artur/whyspent-bot/internal/flags"
	"github.com/artur/whyspent-bot/internal/handler"
	"github.com/artur/whyspent-bot/internal/i18n"
	"github.com/artur/whyspent-bot/internal/logger"
	"github.com/artur/whyspent-bot/internal/ratelimit"
)

func main() {
	cfg, err := config.Load()
	logger.Setup(cfg.LogLevel, !cfg.IsProd())
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if len(cfg.AdminIDs) == 0 {
		log.Warn().Msg("ADMIN_IDS is empty, admin commands are disabled")
	}

	db, err := database.New(cfg.SQLitePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	users := repository.NewUserRepository(db.DB, i18n.Default)
	feedback := repository.NewFeedbackRepository(db.DB)
	broadcastLogs := repository.NewBroadcastLogRepository(db.DB)
	history := repository.NewHistoryRepository(db.DB)
	userFlags := flags.New(users)

	limiter := ratelimit.New(cfg.UserRateLimit, cfg.RateWindow, cfg.IsAdmin, nil)
	stopSweeper, err := limiter.StartSweeper(cfg.SweepInterval)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start rate limiter sweeper")
	}
	defer stopSweeper()

	b, err := bot.New(cfg.BotToken, bot.Options{
		Gate:     limiter,
		Users:    users,
		AdminIDs: cfg.AdminIDs,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create bot")
	}

	broadcaster := broadcast.NewService(b.API(), users, broadcastLogs, cfg.BroadcastRate)
	assistant := ai.NewService(ai.NewClient(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel).WithRateLimit(cfg.AIRequestsPerMinute), history, cfg.AIAvailable())

	b.RegisterHandler(handler.NewStartHandler(cfg.MiniAppURL, cfg.UpdatesChannelURL))
	b.RegisterHandler(handler.NewHelpHandler(users))
	b.RegisterHandler(handler.NewOpenHandler(cfg.MiniAppURL, users))
	b.RegisterHandler(handler.NewFeedbackHandler(users, userFlags))
	b.RegisterHandler(handler.NewSettingsHandler(users))
	b.RegisterHandler(handler.NewPrivacyHandler(users))
	b.RegisterHandler(handler.NewDonateHandler(users))
	b.RegisterHandler(handler.NewChannelHandler(cfg.ChannelURL))
	b.RegisterHandler(handler.NewBroadcastHandler(broadcaster, cfg.IsAdmin))
	b.RegisterHandler(handler.NewStatsHandler(users, feedback, broadcastLogs, cfg.IsAdmin))
	b.RegisterHandler(handler.NewAIHandler(users, userFlags, assistant))
	b.RegisterHandler(handler.NewCallbackHandler(users))
	// Catches every remaining message, keep it last.
	b.RegisterHandler(handler.NewTextHandler(users, userFlags, feedback, assistant))

	if err := b.RegisterCommands(); err != nil {
		log.Warn().Err(err).Msg("failed to register bot commands")
	}

	mode := "polling"
	if cfg.UseWebhook() {
		mode = "webhook"
	}
	b.SendStartupNotification(mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("mode", mode).Str("env", cfg.Env).Bool("ai", cfg.AIAvailable()).Msg("bot is running")

	if err := b.Run(ctx, cfg.WebhookURL, ":"+cfg.Port); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("bot stopped with error")
		return
	}
	log.Info().Msg("bot stopped")
}
