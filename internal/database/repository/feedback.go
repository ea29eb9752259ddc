package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/artur/whyspent-bot/internal/database/models"
)

// FeedbackRepository handles feedback persistence
type FeedbackRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewFeedbackRepository creates a new FeedbackRepository
func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db, now: time.Now}
}

// Save stores one feedback message
func (r *FeedbackRepository) Save(userID int64, message string) error {
	query := `INSERT INTO feedback (user_id, message, created_at) VALUES (?, ?, ?)`
	if _, err := r.db.Exec(query, userID, message, formatTime(r.now())); err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}
	return nil
}

// Count returns total feedback messages
func (r *FeedbackRepository) Count() (int64, error) {
	var count int64
	err := r.db.QueryRow("SELECT COUNT(*) FROM feedback").Scan(&count)
	return count, err
}

// ListRecent returns the newest feedback first
func (r *FeedbackRepository) ListRecent(limit int) ([]models.Feedback, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, message, created_at
		FROM feedback
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var items []models.Feedback
	for rows.Next() {
		var item models.Feedback
		var createdAt string
		if err := rows.Scan(&item.ID, &item.UserID, &item.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		item.CreatedAt = parseTime(createdAt)
		items = append(items, item)
	}
	return items, rows.Err()
}
