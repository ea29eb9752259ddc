package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/artur/whyspent-bot/internal/database/models"
)

// HistoryRepository keeps per-user AI conversation turns
type HistoryRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewHistoryRepository creates a new HistoryRepository
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db, now: time.Now}
}

// Append stores one message turn
func (r *HistoryRepository) Append(userID int64, role models.Role, content string) error {
	query := `INSERT INTO message_history (user_id, role, content, created_at) VALUES (?, ?, ?, ?)`
	if _, err := r.db.Exec(query, userID, string(role), content, formatTime(r.now())); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// Recent returns up to limit latest messages of a user in chronological order
func (r *HistoryRepository) Recent(userID int64, limit int) ([]models.HistoryMessage, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, role, content, created_at
		FROM message_history
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var messages []models.HistoryMessage
	for rows.Next() {
		var m models.HistoryMessage
		var role, createdAt string
		if err := rows.Scan(&m.ID, &m.UserID, &role, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Role = models.Role(role)
		m.CreatedAt = parseTime(createdAt)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// Clear removes a user's history
func (r *HistoryRepository) Clear(userID int64) error {
	if _, err := r.db.Exec(`DELETE FROM message_history WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Count returns total stored messages
func (r *HistoryRepository) Count() (int64, error) {
	var count int64
	err := r.db.QueryRow("SELECT COUNT(*) FROM message_history").Scan(&count)
	return count, err
}
