package telemetry

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestSetupLogger_DoesNotPanicForAllCombinations(t *testing.T) {
	formats := []string{"json", "text", "JSON", "", "unknown"}
	levels := []string{"debug", "info", "warn", "warning", "error", "", "unknown"}

	for _, format := range formats {
		for _, level := range levels {
			t.Run(format+"/"+level, func(t *testing.T) {
				defer func() {
					if r := recover(); r != nil {
						t.Errorf("SetupLogger(%q, %q) panicked: %v", format, level, r)
					}
				}()
				SetupLogger(format, level)
			})
		}
	}
	// Restore a quiet default so other tests in this binary are unaffected.
	SetupLogger("text", "error")
}

func TestJSONHandler_ProducesValidJSON(t *testing.T) {
	// Same code path as SetupLogger("json", "info") but over a local buffer so
	// the output can be inspected without capturing os.Stdout.
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger.Info("test message", "key", "value")

	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("JSON handler produced no output")
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(line), &obj); err != nil {
		t.Fatalf("JSON handler output is not valid JSON: %v\noutput: %s", err, line)
	}
	if obj["msg"] != "test message" {
		t.Errorf("msg = %v, want %q", obj["msg"], "test message")
	}
	if obj["key"] != "value" {
		t.Errorf("key = %v, want %q", obj["key"], "value")
	}
}
