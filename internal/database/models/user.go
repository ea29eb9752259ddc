package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Known user flags.
const (
	FlagFeedbackMode = "feedback_mode"
	FlagAIEnabled    = "ai_enabled"
)

// User represents a Telegram user stored in database
type User struct {
	ID           int64
	Username     string
	FirstName    string
	Language     string
	JoinedAt     time.Time
	LastActiveAt time.Time
	Flags        Flags
}

// Flags is the per-user set of switches. A missing or non-boolean value
// reads as false. Keys this version does not know, whatever their JSON type,
// are kept and written back unchanged.
type Flags map[string]any

// ParseFlags decodes the stored blob. Empty or malformed input, or anything
// other than a JSON object, yields an empty set.
func ParseFlags(raw string) Flags {
	if raw == "" {
		return Flags{}
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var flags Flags
	if err := dec.Decode(&flags); err != nil || flags == nil {
		return Flags{}
	}
	return flags
}

func (f Flags) Get(name string) bool {
	v, _ := f[name].(bool)
	return v
}

// Encode serializes the set as a flat JSON object.
func (f Flags) Encode() string {
	if len(f) == 0 {
		return "{}"
	}
	b, err := json.Marshal(map[string]any(f))
	if err != nil {
		return "{}"
	}
	return string(b)
}
