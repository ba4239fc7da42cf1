package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesRollingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "plantcare.log")

	log, err := New(Options{Level: "debug", Path: path})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	log.Named("test").Debug("watering recorded")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "watering recorded") {
		t.Errorf("log file missing entry: %s", data)
	}
	if !strings.Contains(string(data), `"timestamp"`) {
		t.Errorf("log entry missing timestamp key: %s", data)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plantcare.log")

	log, err := New(Options{Level: "warn", Path: path})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	log.Info("quiet")
	log.Warn("loud")
	_ = log.Sync()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "quiet") {
		t.Error("info entry should be filtered at warn level")
	}
	if !strings.Contains(string(data), "loud") {
		t.Error("warn entry missing")
	}
}

func TestNamedNil(t *testing.T) {
	if Named(nil, "x") == nil {
		t.Error("Named(nil) should return a no-op logger")
	}
}
