package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingToken is returned when no bot token is configured.
var ErrMissingToken = errors.New("BOT_TOKEN environment variable is not set")

const (
	DefaultMiniAppURL    = "https://happymonday-ten.vercel.app/"
	DefaultChannelURL    = "https://t.me/whyspentjournal"
	DefaultSQLitePath    = "./data/db.sqlite"
	DefaultAIBaseURL     = "https://api.openai.com/v1"
	DefaultAIModel       = "gpt-4o-mini"
	DefaultPort          = "3000"
	DefaultUserRateLimit = 30
	DefaultBroadcastRate = 30
	DefaultAIRequestsPM  = 20
)

// Config keeps runtime settings for the bot.
type Config struct {
	BotToken          string
	AdminIDs          []int64
	MiniAppURL        string
	UpdatesChannelURL string
	ChannelURL        string
	SQLitePath        string
	Env               string
	LogLevel          string

	AIProvider string
	AIAPIKey   string
	AIBaseURL  string
	AIModel    string

	// AIRequestsPerMinute caps outbound completion requests.
	AIRequestsPerMinute int

	WebhookURL string
	Port       string

	// UserRateLimit is the number of updates a non-admin user may send per RateWindow.
	UserRateLimit int
	RateWindow    time.Duration
	// BroadcastRate is the outbound ceiling in messages per second.
	BroadcastRate int
	SweepInterval time.Duration
}

// Load reads configuration from an optional .env file and the environment.
// Variables already present in the environment are not overridden.
func Load() (Config, error) {
	_ = godotenv.Load()
	return fromLookup(os.Getenv)
}

func fromLookup(getenv func(string) string) (Config, error) {
	get := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				return v
			}
		}
		return ""
	}

	cfg := Config{
		BotToken:          get("BOT_TOKEN", "TELEGRAM_BOT_TOKEN"),
		AdminIDs:          ParseAdminIDs(get("ADMIN_IDS")),
		MiniAppURL:        get("MINIAPP_URL"),
		UpdatesChannelURL: get("UPDATES_CHANNEL_URL"),
		ChannelURL:        get("CHANNEL_URL"),
		SQLitePath:        get("SQLITE_PATH", "DB_PATH"),
		Env:               get("APP_ENV", "NODE_ENV"),
		LogLevel:          get("LOG_LEVEL"),
		AIProvider:        get("AI_PROVIDER"),
		AIAPIKey:          get("AI_API_KEY"),
		AIBaseURL:         get("AI_BASE_URL"),
		AIModel:           get("AI_MODEL"),
		WebhookURL:        get("WEBHOOK_URL"),
		Port:              get("PORT"),
		UserRateLimit:     parsePositive(get("USER_RATE_LIMIT"), DefaultUserRateLimit),
		BroadcastRate:     parsePositive(get("BROADCAST_RATE"), DefaultBroadcastRate),

		AIRequestsPerMinute: parsePositive(get("AI_REQUESTS_PER_MINUTE"), DefaultAIRequestsPM),
		RateWindow:        time.Minute,
		SweepInterval:     5 * time.Minute,
	}

	if cfg.MiniAppURL == "" {
		cfg.MiniAppURL = DefaultMiniAppURL
	}
	if cfg.ChannelURL == "" {
		cfg.ChannelURL = DefaultChannelURL
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = DefaultSQLitePath
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AIProvider == "" {
		cfg.AIProvider = "openai"
	}
	if cfg.AIBaseURL == "" {
		cfg.AIBaseURL = DefaultAIBaseURL
	}
	if cfg.AIModel == "" {
		cfg.AIModel = DefaultAIModel
	}
	if cfg.Port == "" {
		cfg.Port = DefaultPort
	}

	if cfg.BotToken == "" {
		return cfg, ErrMissingToken
	}
	return cfg, nil
}

// ParseAdminIDs parses a comma-separated list of Telegram user IDs.
// Entries that are not integers are skipped.
func ParseAdminIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func parsePositive(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func (c Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// AIAvailable reports whether an AI provider and key are configured.
func (c Config) AIAvailable() bool {
	return c.AIAPIKey != "" && c.AIProvider != ""
}

func (c Config) IsProd() bool { return c.Env == "production" }

func (c Config) UseWebhook() bool { return c.WebhookURL != "" }
