package handler

import (
	"context"

	"github.com/artur/whyspent-bot/internal/bot"
	"github.com/artur/whyspent-bot/internal/database/models"
	"github.com/artur/whyspent-bot/internal/i18n"
	"github.com/artur/whyspent-bot/internal/logger"
)

// Counter is implemented by every repository that can count its rows.
type Counter interface {
	Count() (int64, error)
}

// BroadcastHistory is the broadcast audit log.
type BroadcastHistory interface {
	Counter
	Last() (*models.BroadcastLog, error)
}

const lastBroadcastLayout = "2006-01-02 15:04 UTC"

type StatsHandler struct {
	users      Counter
	feedback   Counter
	broadcasts BroadcastHistory
	isAdmin    AdminCheck
}

func NewStatsHandler(users, feedback Counter, broadcasts BroadcastHistory, isAdmin AdminCheck) *StatsHandler {
	return &StatsHandler{
		users:      users,
		feedback:   feedback,
		broadcasts: broadcasts,
		isAdmin:    isAdmin,
	}
}

func (h *StatsHandler) CanHandle(ev bot.Event) bool {
	return ev.IsCommand("stats")
}

func (h *StatsHandler) Handle(ctx context.Context, api bot.Sender, ev bot.Event) {
	log := logger.For("stats")
	lang := i18n.Default

	if ev.From == nil {
		return
	}
	if !h.isAdmin(ev.From.ID) {
		reply(api, ev, i18n.T(lang, "error.admin_only"), nil)
		return
	}

	counts := make([]int64, 3)
	for i, c := range []Counter{h.users, h.feedback, h.broadcasts} {
		n, err := c.Count()
		if err != nil {
			log.Error().Err(err).Msg("failed to count")
			reply(api, ev, i18n.T(lang, "error.generic"), nil)
			return
		}
		counts[i] = n
	}

	text := i18n.T(lang, "stats.title") + "\n\n" +
		i18n.T(lang, "stats.users", i18n.Params{"count": counts[0]}) + "\n" +
		i18n.T(lang, "stats.feedback", i18n.Params{"count": counts[1]}) + "\n" +
		i18n.T(lang, "stats.broadcasts", i18n.Params{"count": counts[2]})

	last, err := h.broadcasts.Last()
	if err != nil {
		log.Error().Err(err).Msg("failed to load last broadcast")
	}
	if last != nil {
		text += "\n" + i18n.T(lang, "stats.last_broadcast", i18n.Params{
			"date":    last.CreatedAt.UTC().Format(lastBroadcastLayout),
			"target":  last.TargetFilter,
			"success": last.SuccessCount,
			"failed":  last.FailCount,
		})
	}
	reply(api, ev, text, nil)
}
