package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/artur/whyspent-bot/internal/logger"
)

type window struct {
	count   int
	resetAt time.Time
}

// Limiter is a per-user fixed-window counter. A user's window resets on the
// first event that arrives after it expired.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	period  time.Duration
	exempt  func(userID int64) bool
	now     func() time.Time
	windows map[int64]*window
}

// New creates a limiter allowing limit events per period. Users for which
// exempt returns true are never limited. A nil now uses time.Now.
func New(limit int, period time.Duration, exempt func(int64) bool, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	if exempt == nil {
		exempt = func(int64) bool { return false }
	}
	return &Limiter{
		limit:   limit,
		period:  period,
		exempt:  exempt,
		now:     now,
		windows: make(map[int64]*window),
	}
}

// Allow records one event for userID and reports whether it may proceed.
// Rejected events are not counted.
func (l *Limiter) Allow(userID int64) bool {
	if l.exempt(userID) {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[userID]
	if !ok || now.After(w.resetAt) {
		l.windows[userID] = &window{count: 1, resetAt: now.Add(l.period)}
		return true
	}

	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Sweep drops expired windows and returns how many were removed. It only
// bounds memory; Allow handles expiry on its own.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for id, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked users.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// StartSweeper runs Sweep every interval until the returned stop is called.
func (l *Limiter) StartSweeper(interval time.Duration) (stop func(), err error) {
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		return nil, fmt.Errorf("sweep interval must be at least one second")
	}

	log := logger.For("ratelimit")
	c := cron.New()
	_, err = c.AddFunc(fmt.Sprintf("@every %ds", seconds), func() {
		if n := l.Sweep(); n > 0 {
			log.Debug().Int("removed", n).Msg("swept expired windows")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule sweep: %w", err)
	}
	c.Start()

	return func() {
		ctx := c.Stop()
		<-ctx.Done()
	}, nil
}
