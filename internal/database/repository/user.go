package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/artur/whyspent-bot/internal/database/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const userColumns = `user_id, username, first_name, language, joined_at, last_active_at, flags`

// UserRepository handles user data persistence
type UserRepository struct {
	db              *sql.DB
	defaultLanguage string
	now             func() time.Time
}

// NewUserRepository creates a new UserRepository. New users get defaultLanguage.
func NewUserRepository(db *sql.DB, defaultLanguage string) *UserRepository {
	return &UserRepository{db: db, defaultLanguage: defaultLanguage, now: time.Now}
}

// UpsertFromTelegram creates the user on first contact, otherwise refreshes
// the display fields and last activity. Language, flags and joined_at are
// never touched by this call.
func (r *UserRepository) UpsertFromTelegram(tgUser *tgbotapi.User) (*models.User, error) {
	if tgUser == nil {
		return nil, fmt.Errorf("telegram user is nil")
	}

	now := formatTime(r.now())

	query := `
		INSERT INTO users (user_id, username, first_name, language, joined_at, last_active_at, flags)
		VALUES (?, ?, ?, ?, ?, ?, '{}')
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_active_at = excluded.last_active_at
	`

	_, err := r.db.Exec(query,
		tgUser.ID,
		nullString(tgUser.UserName),
		nullString(tgUser.FirstName),
		r.defaultLanguage,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return r.GetByID(tgUser.ID)
}

// GetByID retrieves user by Telegram user ID. Returns nil, nil when absent.
func (r *UserRepository) GetByID(userID int64) (*models.User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// SetLanguage stores the user's language preference
func (r *UserRepository) SetLanguage(userID int64, language string) error {
	_, err := r.db.Exec(`UPDATE users SET language = ? WHERE user_id = ?`, language, userID)
	if err != nil {
		return fmt.Errorf("failed to set language: %w", err)
	}
	return nil
}

// UpdateFlags overwrites the whole flag blob of a user
func (r *UserRepository) UpdateFlags(userID int64, flags models.Flags) error {
	_, err := r.db.Exec(`UPDATE users SET flags = ? WHERE user_id = ?`, flags.Encode(), userID)
	if err != nil {
		return fmt.Errorf("failed to update flags: %w", err)
	}
	return nil
}

// ListAll returns every user in storage order
func (r *UserRepository) ListAll() ([]models.User, error) {
	return r.list(`SELECT `+userColumns+` FROM users ORDER BY rowid`)
}

// ListByLanguage returns users whose language matches exactly
func (r *UserRepository) ListByLanguage(language string) ([]models.User, error) {
	return r.list(`SELECT `+userColumns+` FROM users WHERE language = ? ORDER BY rowid`, language)
}

// Count returns total number of users
func (r *UserRepository) Count() (int64, error) {
	var count int64
	err := r.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

func (r *UserRepository) list(query string, args ...any) ([]models.User, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*models.User, error) {
	user := &models.User{}
	var username, firstName, flags sql.NullString
	var joinedAt, lastActiveAt string

	if err := s.Scan(
		&user.ID,
		&username,
		&firstName,
		&user.Language,
		&joinedAt,
		&lastActiveAt,
		&flags,
	); err != nil {
		return nil, err
	}

	user.Username = username.String
	user.FirstName = firstName.String
	user.JoinedAt = parseTime(joinedAt)
	user.LastActiveAt = parseTime(lastActiveAt)
	user.Flags = models.ParseFlags(flags.String)
	return user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
