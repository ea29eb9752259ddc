// Package flags reads and writes the per-user boolean switches that drive
// mode-dependent behavior (feedback capture, AI chat).
//
// Every call re-reads the user row. Writes are a read-modify-write of the
// whole flag blob without isolation: two concurrent writers for the same user
// can lose an update, the last writer wins.
package flags

import (
	"github.com/artur/whyspent-bot/internal/database/models"
	"github.com/artur/whyspent-bot/internal/logger"
)

// UserStore is the part of the user repository the accessor needs.
type UserStore interface {
	GetByID(userID int64) (*models.User, error)
	UpdateFlags(userID int64, flags models.Flags) error
}

type Accessor struct {
	store UserStore
}

func New(store UserStore) *Accessor {
	return &Accessor{store: store}
}

// Get returns the flag value, false when the user or the flag is missing.
func (a *Accessor) Get(userID int64, name string) bool {
	user := a.load(userID)
	if user == nil {
		return false
	}
	return user.Flags.Get(name)
}

// Set stores the flag value. Writes for unknown users are dropped.
func (a *Accessor) Set(userID int64, name string, value bool) {
	user := a.load(userID)
	if user == nil {
		return
	}
	a.write(user, name, value)
}

// Toggle flips the flag and returns the new value. ok is false when the user
// does not exist, in which case nothing is written.
func (a *Accessor) Toggle(userID int64, name string) (value bool, ok bool) {
	user := a.load(userID)
	if user == nil {
		return false, false
	}
	value = !user.Flags.Get(name)
	a.write(user, name, value)
	return value, true
}

func (a *Accessor) load(userID int64) *models.User {
	user, err := a.store.GetByID(userID)
	if err != nil {
		log := logger.For("flags")
		log.Error().Err(err).Int64("user_id", userID).Msg("failed to load user")
		return nil
	}
	return user
}

func (a *Accessor) write(user *models.User, name string, value bool) {
	flags := user.Flags
	if flags == nil {
		flags = models.Flags{}
	}
	flags[name] = value

	if err := a.store.UpdateFlags(user.ID, flags); err != nil {
		log := logger.For("flags")
		log.Error().Err(err).Int64("user_id", user.ID).Str("flag", name).Msg("failed to store flag")
	}
}
