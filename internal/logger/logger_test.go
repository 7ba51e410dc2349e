package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelWarn,
		"bogus": slog.LevelWarn,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInit_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := Init(&buf, "warn", false)

	l.Debug("hidden")
	l.Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record should be filtered, got %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "key=value") {
		t.Errorf("expected warn record with attrs, got %q", out)
	}
	if Get() != l {
		t.Error("Get should return the logger installed by Init")
	}
}

func TestInit_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := Init(&buf, "debug", true)
	l.Debug("sync", "tasks", 3)

	if !strings.Contains(buf.String(), `"msg":"sync"`) {
		t.Errorf("expected JSON record, got %q", buf.String())
	}
}
