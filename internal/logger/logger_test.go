package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

// resetLogger resets the logger to default state for test isolation
func resetLogger() {
	Init(Options{})
}

// --- Levels ---

func TestOptions_Level(t *testing.T) {
	tests := []struct {
		opts Options
		want slog.Level
	}{
		{Options{}, slog.LevelInfo},
		{Options{Debug: true}, slog.LevelDebug},
		{Options{Quiet: true}, slog.LevelError},
		// Quiet wins over Debug.
		{Options{Debug: true, Quiet: true}, slog.LevelError},
	}
	for _, tt := range tests {
		if got := tt.opts.Level(); got != tt.want {
			t.Errorf("%+v.Level() = %v, want %v", tt.opts, got, tt.want)
		}
	}
}

func TestInit_DefaultLevel_Info(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	Info("test info")
	Debug("test debug")

	if !strings.Contains(buf.String(), "test info") {
		t.Error("Info message should be logged at default level")
	}
	if strings.Contains(buf.String(), "test debug") {
		t.Error("Debug message should not be logged at default level")
	}
}

func TestInit_QuietLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Quiet: true, Output: buf})
	defer resetLogger()

	Info("test info")
	Warn("test warn")
	Error("test error")

	output := buf.String()
	if strings.Contains(output, "test info") || strings.Contains(output, "test warn") {
		t.Error("Info and Warn should not be logged when Quiet=true")
	}
	if !strings.Contains(output, "test error") {
		t.Error("Error message should be logged when Quiet=true")
	}
}

// --- Formats ---

func TestInit_JSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{JSON: true, Output: buf})
	defer resetLogger()

	Info("extraction attempt succeeded", "extractor", "regex")

	output := buf.String()
	if !strings.HasPrefix(output, "{") {
		t.Errorf("JSON format should produce JSON output, got %q", output)
	}
	if !strings.Contains(output, `"extractor":"regex"`) {
		t.Errorf("JSON output should contain attributes, got %q", output)
	}
}

func TestInit_CustomLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	custom := slog.New(slog.NewTextHandler(buf, nil))
	Init(Options{Logger: custom, JSON: true})
	defer resetLogger()

	if Get() != custom {
		t.Fatal("custom logger should be used as is")
	}
	Info("via custom")
	if !strings.Contains(buf.String(), "via custom") {
		t.Error("expected message in custom logger output")
	}
}

func TestWith_ReturnsLoggerWithAttrs(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	With("outcome", "no_match").Info("test with attrs")

	if !strings.Contains(buf.String(), "outcome=no_match") {
		t.Errorf("expected attributes in output, got %q", buf.String())
	}
}

// --- Context ---

func TestRequestID_RoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc-123")
	if got := RequestID(ctx); got != "abc-123" {
		t.Errorf("RequestID() = %q", got)
	}
	if got := RequestID(context.Background()); got != "" {
		t.Errorf("RequestID(empty) = %q", got)
	}
}

func TestContextHelpers_AddRequestID(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Debug: true, Output: buf})
	defer resetLogger()

	ctx := WithRequestID(context.Background(), "req-42")
	DebugContext(ctx, "debug line")
	InfoContext(ctx, "info line")
	WarnContext(ctx, "warn line")
	ErrorContext(ctx, "error line")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4: %q", len(lines), buf.String())
	}
	for _, line := range lines {
		if !strings.Contains(line, "request_id=req-42") {
			t.Errorf("line missing request ID: %q", line)
		}
	}
}

func TestContextHelpers_NoRequestID(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	InfoContext(context.Background(), "plain line", "count", 3)
	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("unexpected request_id in %q", buf.String())
	}
	if !strings.Contains(buf.String(), "count=3") {
		t.Errorf("missing attribute in %q", buf.String())
	}
}
