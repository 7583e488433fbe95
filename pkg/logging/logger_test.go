package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger()
	if logger == nil || logger.Logger == nil {
		t.Fatal("NewLogger() returned an unusable logger")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected slog.Level
	}{
		{"debug level", "DEBUG", slog.LevelDebug},
		{"info level", "INFO", slog.LevelInfo},
		{"warning alias", "WARNING", slog.LevelWarn},
		{"error level", "error", slog.LevelError},
		{"padded value", "  Debug ", slog.LevelDebug},
		{"invalid level", "INVALID", slog.LevelInfo},
		{"empty value", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if level := ParseLevel(tt.value); level != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.value, level, tt.expected)
			}
		})
	}
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv(LevelEnvVar, "warn")
	if level := getLogLevelFromEnv(); level != slog.LevelWarn {
		t.Errorf("getLogLevelFromEnv() = %v, want WARN", level)
	}
}

func TestCorrelationID(t *testing.T) {
	id1 := GenerateCorrelationID()
	id2 := GenerateCorrelationID()
	if len(id1) != 16 || id1 == id2 {
		t.Errorf("unexpected ids %q %q", id1, id2)
	}

	ctx := WithCorrelationID(context.Background(), "journey-1")
	if got := GetCorrelationID(ctx); got != "journey-1" {
		t.Errorf("GetCorrelationID() = %q", got)
	}

	generated := WithCorrelationID(context.Background(), "")
	if GetCorrelationID(generated) == "" {
		t.Error("empty id should be replaced by a generated one")
	}

	if GetCorrelationID(context.Background()) != "" {
		t.Error("plain context should have no correlation id")
	}
}

func TestLogWithContext_AddsJourneyID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelDebug)

	ctx := WithCorrelationID(context.Background(), "abc123")
	logger.Info(ctx, "autopilot engaged", "vessel", 7)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["journey_id"] != "abc123" {
		t.Errorf("journey_id = %v", entry["journey_id"])
	}
	if entry["msg"] != "autopilot engaged" {
		t.Errorf("msg = %v", entry["msg"])
	}
}

func TestError_IncludesErrorText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelInfo)

	logger.Error(context.Background(), "journal write failed", errors.New("disk full"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["error"] != "disk full" {
		t.Errorf("error = %v", entry["error"])
	}
}

func TestSanitizeAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelInfo)

	logger.Info(context.Background(), "connect", "db_password", "hunter2", "vessel", "Kestrel")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["db_password"] != "[REDACTED]" {
		t.Errorf("db_password = %v", entry["db_password"])
	}
	if entry["vessel"] != "Kestrel" {
		t.Errorf("vessel = %v", entry["vessel"])
	}
}

func TestDiscard_DropsRecords(t *testing.T) {
	logger := Discard()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("Discard() logger should not be enabled for ERROR")
	}
}

func TestWrapError(t *testing.T) {
	base := errors.New("boom")
	wrapped := WrapError(base, "vessel %d", 3)
	if !errors.Is(wrapped, base) {
		t.Error("wrapped error lost its cause")
	}
	if wrapped.Error() != "vessel 3: boom" {
		t.Errorf("Error() = %q", wrapped.Error())
	}
	if WrapError(nil, "ignored") != nil {
		t.Error("WrapError(nil) should be nil")
	}
}
