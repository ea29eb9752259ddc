package models

import "time"

// Feedback is a free-text message submitted via /feedback
type Feedback struct {
	ID        int64
	UserID    int64
	Message   string
	CreatedAt time.Time
}
