package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/artur/whyspent-bot/internal/database/models"
)

// BroadcastLogRepository stores the broadcast audit trail
type BroadcastLogRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewBroadcastLogRepository creates a new BroadcastLogRepository
func NewBroadcastLogRepository(db *sql.DB) *BroadcastLogRepository {
	return &BroadcastLogRepository{db: db, now: time.Now}
}

// Record appends one audit row. A zero CreatedAt is set to now.
func (r *BroadcastLogRepository) Record(entry models.BroadcastLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}

	query := `
		INSERT INTO broadcast_logs (admin_id, message, target_filter, success_count, fail_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		entry.AdminID,
		entry.Message,
		entry.TargetFilter,
		entry.SuccessCount,
		entry.FailCount,
		formatTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record broadcast: %w", err)
	}
	return nil
}

// Count returns the number of completed broadcasts
func (r *BroadcastLogRepository) Count() (int64, error) {
	var count int64
	err := r.db.QueryRow("SELECT COUNT(*) FROM broadcast_logs").Scan(&count)
	return count, err
}

// Last returns the most recent audit row, or nil if there is none
func (r *BroadcastLogRepository) Last() (*models.BroadcastLog, error) {
	entry := &models.BroadcastLog{}
	var createdAt string
	err := r.db.QueryRow(`
		SELECT id, admin_id, message, target_filter, success_count, fail_count, created_at
		FROM broadcast_logs
		ORDER BY id DESC
		LIMIT 1
	`).Scan(
		&entry.ID,
		&entry.AdminID,
		&entry.Message,
		&entry.TargetFilter,
		&entry.SuccessCount,
		&entry.FailCount,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last broadcast: %w", err)
	}
	entry.CreatedAt = parseTime(createdAt)
	return entry, nil
}
