package handler

import (
	"context"

	"github.com/artur/whyspent-bot/internal/bot"
	"github.com/artur/whyspent-bot/internal/broadcast"
	"github.com/artur/whyspent-bot/internal/i18n"
	"github.com/artur/whyspent-bot/internal/logger"
)

// Broadcaster is the part of broadcast.Service the command needs.
type Broadcaster interface {
	Preview(ctx context.Context, adminID int64, message string) error
	Execute(ctx context.Context, adminID int64, d broadcast.Directive) (broadcast.Result, error)
}

// BroadcastHandler handles the admin-only /broadcast command. Admin replies
// are always in the default language.
type BroadcastHandler struct {
	service Broadcaster
	isAdmin AdminCheck
}

func NewBroadcastHandler(service Broadcaster, isAdmin AdminCheck) *BroadcastHandler {
	return &BroadcastHandler{service: service, isAdmin: isAdmin}
}

func (h *BroadcastHandler) CanHandle(ev bot.Event) bool {
	return ev.IsCommand("broadcast")
}

func (h *BroadcastHandler) Handle(ctx context.Context, api bot.Sender, ev bot.Event) {
	log := logger.For("broadcast")
	lang := i18n.Default

	if ev.From == nil {
		return
	}
	adminID := ev.From.ID
	if !h.isAdmin(adminID) {
		log.Warn().Int64("user_id", adminID).Msg("non-admin tried to broadcast")
		reply(api, ev, i18n.T(lang, "error.admin_only"), nil)
		return
	}

	d, ok := broadcast.Parse(ev.Text)
	if !ok || d.Message == "" {
		reply(api, ev, i18n.T(lang, "broadcast.no_message"), nil)
		return
	}

	if d.Type == broadcast.TypePreview {
		if err := h.service.Preview(ctx, adminID, d.Message); err != nil {
			log.Error().Err(err).Msg("preview failed")
			reply(api, ev, i18n.T(lang, "error.generic"), nil)
			return
		}
		reply(api, ev, i18n.T(lang, "broadcast.preview_sent"), nil)
		return
	}

	reply(api, ev, i18n.T(lang, "broadcast.started"), nil)

	result, err := h.service.Execute(ctx, adminID, d)
	if err != nil {
		log.Error().Err(err).Str("target", d.Target()).Msg("broadcast failed")
		reply(api, ev, i18n.T(lang, "error.generic"), nil)
		return
	}

	reply(api, ev, i18n.T(lang, "broadcast.complete", i18n.Params{
		"total":    result.Total,
		"success":  result.Success,
		"failed":   result.Failed,
		"duration": result.DurationSeconds(),
	}), nil)
}
