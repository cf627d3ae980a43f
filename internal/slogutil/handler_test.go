package slogutil

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestTextHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("Check finished", "check", 3, "status", "fail")

	output := buf.String()
	for _, want := range []string{"[info]", "Check finished", " | ", "check=3", "status=fail"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestTextHandler_QuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("Skipped", "reason", "dependency check 1 failed")

	if !strings.Contains(buf.String(), `reason="dependency check 1 failed"`) {
		t.Errorf("expected quoted value, got: %s", buf.String())
	}
}

func TestTextHandler_Levels(t *testing.T) {
	tests := []struct {
		logFunc  func(*slog.Logger)
		expected string
	}{
		{func(l *slog.Logger) { l.Debug("debug") }, "[debug]"},
		{func(l *slog.Logger) { l.Info("info") }, "[info]"},
		{func(l *slog.Logger) { l.Warn("warn") }, "[warn]"},
		{func(l *slog.Logger) { l.Error("error") }, "[error]"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, slog.LevelDebug)
			tt.logFunc(logger)

			if !strings.Contains(buf.String(), tt.expected) {
				t.Errorf("expected %s in output, got: %s", tt.expected, buf.String())
			}
		})
	}
}

func TestTextHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("records below warn should be filtered, got: %s", output)
	}
	if !strings.Contains(output, "shown") {
		t.Errorf("warn record missing, got: %s", output)
	}
}

func TestTextHandler_GroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo).With("scan", "abc").WithGroup("spec")

	logger.Info("Parsed", "kind", "brd")

	output := buf.String()
	if !strings.Contains(output, "scan=abc") {
		t.Errorf("expected pre-set attr, got: %s", output)
	}
	if !strings.Contains(output, "spec.kind=brd") {
		t.Errorf("expected grouped key, got: %s", output)
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := LevelFromString(tt.in); got != tt.want {
			t.Errorf("LevelFromString(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if ValidLevel("bogus") {
		t.Error("ValidLevel(bogus) should be false")
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	if got := LevelFromVerbosity(0, false); got != slog.LevelWarn {
		t.Errorf("verbosity 0 = %v, want warn", got)
	}
	if got := LevelFromVerbosity(1, false); got != slog.LevelInfo {
		t.Errorf("verbosity 1 = %v, want info", got)
	}
	if got := LevelFromVerbosity(3, false); got != slog.LevelDebug {
		t.Errorf("verbosity 3 = %v, want debug", got)
	}
	if got := LevelFromVerbosity(2, true); got <= slog.LevelError {
		t.Errorf("quiet should suppress everything, got %v", got)
	}
}

func TestNewDiscardLogger(t *testing.T) {
	logger := NewDiscardLogger()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("discard logger should not be enabled for any level")
	}
}

func TestTeeHandler(t *testing.T) {
	var info, warn bytes.Buffer
	h1 := NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo})
	h2 := NewTextHandler(&warn, &slog.HandlerOptions{Level: slog.LevelWarn})
	logger := slog.New(NewTeeHandler(h1, h2))

	logger.Info("only first")
	logger.Warn("both")

	if !strings.Contains(info.String(), "only first") || !strings.Contains(info.String(), "both") {
		t.Errorf("info handler missing records: %s", info.String())
	}
	if strings.Contains(warn.String(), "only first") {
		t.Errorf("warn handler should filter info: %s", warn.String())
	}
	if !strings.Contains(warn.String(), "both") {
		t.Errorf("warn handler missing warn record: %s", warn.String())
	}
}
