// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"taskboard/internal/service"
)

// EmptyMessage is printed when the list has no tasks.
const EmptyMessage = "No tasks yet."

// DateLayout is the creation date format.
const DateLayout = "Jan 2, 2006"

// Renderer formats tasks, styled with a theme when the output supports color.
type Renderer struct {
	lg    *lipgloss.Renderer
	theme Theme
	plain bool
}

// NewRenderer creates a renderer for w. Color is used only when w is a
// terminal and NO_COLOR is unset.
func NewRenderer(w io.Writer, dark bool) *Renderer {
	lg := newLipglossRenderer(w)
	return &Renderer{
		lg:    lg,
		theme: ThemeFor(dark),
		plain: lg.ColorProfile() == termenv.Ascii,
	}
}

// NewPlainRenderer creates a renderer that never emits escape sequences.
func NewPlainRenderer(dark bool) *Renderer {
	lg := lipgloss.NewRenderer(io.Discard)
	lg.SetColorProfile(termenv.Ascii)
	return &Renderer{lg: lg, theme: ThemeFor(dark), plain: true}
}

// Theme returns the active theme.
func (r *Renderer) Theme() Theme {
	return r.theme
}

// Plain reports whether styling is disabled.
func (r *Renderer) Plain() bool {
	return r.plain
}

// Style returns a new style bound to this renderer.
func (r *Renderer) Style() lipgloss.Style {
	return r.lg.NewStyle()
}

func (r *Renderer) render(st lipgloss.Style, s string) string {
	if r.plain {
		return s
	}
	return st.Render(s)
}

// Checkbox returns "[x]" for completed tasks and "[ ]" otherwise.
func Checkbox(completed bool) string {
	if completed {
		return "[x]"
	}
	return "[ ]"
}

// PriorityLabel returns "<Priority> Priority".
func PriorityLabel(p service.Priority) string {
	return p.Label() + " Priority"
}

// Title returns the styled task title: struck through and muted when completed.
func (r *Renderer) Title(task service.Task) string {
	title := normalizeTitle(task.Title)
	st := r.Style().Bold(true)
	if task.Completed {
		st = r.Style().Strikethrough(true).Foreground(r.theme.Muted)
	}
	return r.render(st, title)
}

// Meta returns "(<Priority> Priority, <date>)" with the label in the
// priority color. The date is omitted when unknown.
func (r *Renderer) Meta(task service.Task) string {
	label := r.render(r.Style().Foreground(r.theme.Priority(task.Priority)), PriorityLabel(task.Priority))
	if task.CreatedAt.IsZero() {
		return "(" + label + ")"
	}
	date := r.render(r.Style().Foreground(r.theme.Muted), FormatDate(task.CreatedAt))
	return "(" + label + ", " + date + ")"
}

// FormatTask writes a task entry.
// Format: "{N:>4}  [ ] {TITLE}  ({PRIORITY} Priority, {DATE})\n", followed by
// the description indented by 10 spaces when present.
func (r *Renderer) FormatTask(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  %s %s  %s\n", num, Checkbox(task.Completed), r.Title(task), r.Meta(task))
	if desc := normalizeDescription(task.Description); desc != "" {
		for _, line := range strings.Split(desc, "\n") {
			fmt.Fprintf(w, "%10s%s\n", "", r.render(r.Style().Foreground(r.theme.Muted), line))
		}
	}
}

// FormatTasks writes tasks numbered from 1, or EmptyMessage.
func (r *Renderer) FormatTasks(w io.Writer, tasks []service.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, EmptyMessage)
		return
	}
	for i, task := range tasks {
		r.FormatTask(w, i+1, task)
	}
}

// FormatUser writes the logged-in user, and the session expiry when known.
func FormatUser(w io.Writer, user service.User, expiry time.Time) {
	name := strings.TrimSpace(user.Name)
	if name == "" {
		name = "(no name)"
	}
	fmt.Fprintf(w, "%s <%s>\n", name, user.Email)
	if !expiry.IsZero() {
		fmt.Fprintf(w, "session expires %s\n", expiry.Local().Format("Jan 2, 2006 15:04"))
	}
}

// FormatDate formats a creation timestamp in local time.
func FormatDate(t time.Time) string {
	return t.Local().Format(DateLayout)
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

func normalizeDescription(desc string) string {
	desc = strings.ReplaceAll(desc, "\r\n", "\n")
	return strings.TrimSpace(desc)
}
