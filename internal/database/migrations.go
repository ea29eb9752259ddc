package database

import (
	"fmt"

	"github.com/artur/whyspent-bot/internal/logger"
)

// Migrate runs all database migrations
func (db *DB) Migrate() error {
	log := logger.For("db")
	log.Info().Msg("running migrations")

	migrations := []string{
		// Users table, keyed by Telegram user ID
		`CREATE TABLE IF NOT EXISTS users (
			user_id INTEGER PRIMARY KEY,
			username TEXT,
			first_name TEXT,
			language TEXT NOT NULL DEFAULT 'en',
			joined_at TEXT NOT NULL,
			last_active_at TEXT NOT NULL,
			flags TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_language ON users(language)`,

		// Feedback table
		`CREATE TABLE IF NOT EXISTS feedback (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			message TEXT NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_user_id ON feedback(user_id)`,

		// Broadcast audit log
		`CREATE TABLE IF NOT EXISTS broadcast_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			admin_id INTEGER NOT NULL,
			message TEXT NOT NULL,
			target_filter TEXT NOT NULL,
			success_count INTEGER NOT NULL DEFAULT 0,
			fail_count INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,

		// Chat history for AI context
		`CREATE TABLE IF NOT EXISTS message_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			role TEXT NOT NULL CHECK (role IN ('user', 'assistant', 'system')),
			content TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_message_history_user ON message_history(user_id, created_at)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}

	log.Info().Int("count", len(migrations)).Msg("migrations completed")
	return nil
}
