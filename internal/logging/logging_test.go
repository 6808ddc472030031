package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ieltsmaster/studyplan/internal/config"
)

func TestSink_StderrOnly(t *testing.T) {
	var buf bytes.Buffer
	sink := Open(config.LogConfig{}, &buf)
	defer sink.Close()

	sink.Logger("[api] ").Printf("listening on %d", 8080)

	got := buf.String()
	if !strings.Contains(got, "[api] ") || !strings.Contains(got, "listening on 8080") {
		t.Errorf("log output = %q, want prefix and message", got)
	}
	if err := sink.Rotate(); err != nil {
		t.Errorf("Rotate() without file failed: %v", err)
	}
}

func TestSink_File(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "ielts.log")
	sink := Open(config.LogConfig{File: path, MaxSizeMB: 1, MaxBackups: 1}, &buf)

	sink.Logger("[sync] ").Print("Saved planner update")
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "[sync] Saved planner update") {
		t.Errorf("log file = %q, want the message", data)
	}
	if !strings.Contains(buf.String(), "Saved planner update") {
		t.Errorf("stderr = %q, want the message too", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	Discard().Print("dropped")
}
