package output_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"taskboard/internal/output"
	"taskboard/internal/service"
	"taskboard/internal/testutil"
)

func noon(day int) time.Time {
	return time.Date(2025, 3, day, 12, 0, 0, 0, time.UTC)
}

func TestFormatTasks(t *testing.T) {
	tasks := []service.Task{
		{ID: "1", Title: "Buy milk", Priority: service.PriorityMedium, CreatedAt: noon(14)},
		{ID: "2", Title: "Ship release", Description: "tag v1.2\r\nupdate changelog\n", Priority: service.PriorityHigh, Completed: true, CreatedAt: noon(15)},
		{ID: "3", Title: "  ", Priority: service.PriorityLow},
	}

	var buf bytes.Buffer
	output.NewPlainRenderer(false).FormatTasks(&buf, tasks)
	testutil.Golden(t, "tasks", buf.Bytes())
}

func TestFormatTasks_Empty(t *testing.T) {
	var buf bytes.Buffer
	output.NewPlainRenderer(true).FormatTasks(&buf, nil)
	testutil.Golden(t, "empty", buf.Bytes())
}

func TestFormatTask_NewlinesInTitle(t *testing.T) {
	var buf bytes.Buffer
	output.NewPlainRenderer(false).FormatTask(&buf, 12, service.Task{Title: "a\nb", Priority: service.PriorityLow})
	if got := buf.String(); got != "  12  [ ] a b  (Low Priority)\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestPriorityLabel(t *testing.T) {
	tests := map[service.Priority]string{
		service.PriorityLow:    "Low Priority",
		service.PriorityMedium: "Medium Priority",
		service.PriorityHigh:   "High Priority",
		"":                     "Medium Priority",
	}
	for p, want := range tests {
		if got := output.PriorityLabel(p); got != want {
			t.Errorf("PriorityLabel(%q) = %q, want %q", p, got, want)
		}
	}
}

func TestNewRenderer_NonTerminalIsPlain(t *testing.T) {
	var buf bytes.Buffer
	r := output.NewRenderer(&buf, true)
	if !r.Plain() {
		t.Fatal("expected plain output for a buffer")
	}
	r.FormatTask(&buf, 1, service.Task{Title: "x", Completed: true})
	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("unexpected escape sequence in %q", buf.String())
	}
}

func TestThemeFor(t *testing.T) {
	if output.ThemeFor(true).Name != "dark" || output.ThemeFor(false).Name != "light" {
		t.Error("unexpected theme selection")
	}
	dark := output.ThemeFor(true)
	if dark.Priority(service.PriorityHigh) != lipgloss.TerminalColor(lipgloss.Color("#fca5a5")) {
		t.Errorf("unexpected high color %v", dark.Priority(service.PriorityHigh))
	}
	if dark.Priority("bogus") != dark.Medium {
		t.Error("unknown priority should use the medium color")
	}
}

func TestFormatUser(t *testing.T) {
	var buf bytes.Buffer
	output.FormatUser(&buf, service.User{Name: "Ada", Email: "ada@example.com"}, time.Time{})
	if got := buf.String(); got != "Ada <ada@example.com>\n" {
		t.Errorf("unexpected output %q", got)
	}
}
