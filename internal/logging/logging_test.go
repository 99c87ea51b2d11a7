package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/quantummeet/quantummeet/internal/config"
	"github.com/sirupsen/logrus"
)

func TestNew_TextFormat(t *testing.T) {
	buf := new(bytes.Buffer)
	logger, err := New(config.LogConfig{Level: "info", Format: "text"}, buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.WithField("path", "meetings.getMany").Info("rpc call")

	out := buf.String()
	if !strings.Contains(out, "rpc call") {
		t.Errorf("output missing message: %s", out)
	}
	if !strings.Contains(out, "path=meetings.getMany") {
		t.Errorf("output missing field: %s", out)
	}
}

func TestNew_JSONFormat(t *testing.T) {
	buf := new(bytes.Buffer)
	logger, err := New(config.LogConfig{Level: "debug", Format: "json"}, buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.WithField("status", 404).Debug("not found")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry["msg"] != "not found" {
		t.Errorf("msg = %v, want %q", entry["msg"], "not found")
	}
	if entry["status"] != float64(404) {
		t.Errorf("status = %v, want 404", entry["status"])
	}
}

func TestNew_LevelFilters(t *testing.T) {
	buf := new(bytes.Buffer)
	logger, err := New(config.LogConfig{Level: "warn", Format: "text"}, buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if logger.GetLevel() != logrus.WarnLevel {
		t.Errorf("level = %v, want warn", logger.GetLevel())
	}
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got: %s", buf.String())
	}
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud", Format: "text"}, nil)
	if err == nil {
		t.Fatal("expected error for unknown level")
	}
	if !strings.Contains(err.Error(), "logging:") {
		t.Errorf("error = %q, want logging: prefix", err.Error())
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("goes nowhere")
}
