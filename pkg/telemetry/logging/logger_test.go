package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"mercator-hq/hermes/pkg/config"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("session created", "session_id", "s1")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["msg"] != "session created" || entry["session_id"] != "s1" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&config.LoggingConfig{Level: "debug", Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Debug("reloading rules")
	if !strings.Contains(buf.String(), "reloading rules") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&config.LoggingConfig{Level: "warn", Format: "json"}, &buf)
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("info output below warn level: %q", buf.String())
	}
	logger.Warn("kept")
	if buf.Len() == 0 {
		t.Error("warn output missing")
	}
}

func TestNew_Invalid(t *testing.T) {
	if _, err := New(&config.LoggingConfig{Level: "loud"}, nil); err == nil {
		t.Error("unknown level should error")
	}
	if _, err := New(&config.LoggingConfig{Format: "xml"}, nil); err == nil {
		t.Error("unknown format should error")
	}
}
