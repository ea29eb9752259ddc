package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := ParseLevel(tt.level); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.level, got, tt.expected)
			}
		})
	}
}

func TestFor_AddsComponent(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "info", false)

	l := For("broadcast")
	l.Info().Int("total", 3).Msg("done")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to decode log line %q: %v", buf.String(), err)
	}
	if entry["component"] != "broadcast" {
		t.Errorf("component = %v, want broadcast", entry["component"])
	}
	if entry["message"] != "done" {
		t.Errorf("message = %v, want done", entry["message"])
	}
}

func TestSetupWriter_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "warn", false)

	l := For("test")
	l.Info().Msg("hidden")

	if buf.Len() != 0 {
		t.Errorf("Expected info line to be filtered, got %q", buf.String())
	}
}
