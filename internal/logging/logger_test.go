package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWithWriterProductionEmitsJSON(t *testing.T) {
	var buffer bytes.Buffer
	logger := NewWithWriter("production", &buffer)

	logger.Debug().Msg("hidden")
	logger.Info().Str("plan", "pro").Msg("signup created")

	lines := bytes.Split(bytes.TrimSpace(buffer.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("expected exactly one log line at info level, got %d: %s", len(lines), buffer.String())
	}

	entry := map[string]any{}
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["message"] != "signup created" {
		t.Fatalf("unexpected message field: %v", entry["message"])
	}
	if entry["plan"] != "pro" {
		t.Fatalf("expected plan field, got %v", entry["plan"])
	}
	if entry["service"] != "detailsync" {
		t.Fatalf("expected service field, got %v", entry["service"])
	}
}

func TestGormWriterWritesWarnings(t *testing.T) {
	var buffer bytes.Buffer
	writer := NewGormWriter(NewWithWriter("production", &buffer))

	writer.Printf("slow query %s ", "SELECT 1")

	entry := map[string]any{}
	if err := json.Unmarshal(bytes.TrimSpace(buffer.Bytes()), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["level"] != "warn" || entry["component"] != "gorm" {
		t.Fatalf("unexpected gorm log entry: %v", entry)
	}
	if entry["message"] != "slow query SELECT 1" {
		t.Fatalf("unexpected message: %v", entry["message"])
	}
}
