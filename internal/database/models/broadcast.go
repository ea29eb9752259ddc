package models

import "time"

// BroadcastLog is the audit record of a completed broadcast
type BroadcastLog struct {
	ID           int64
	AdminID      int64
	Message      string
	TargetFilter string
	SuccessCount int
	FailCount    int
	CreatedAt    time.Time
}
