// Package board is the interactive task list. Tasks are reordered by
// grabbing one, moving it with the cursor and dropping it; the drop is
// applied immediately and synchronized with the store in the background.
package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"taskboard/internal/output"
	"taskboard/internal/service"
	"taskboard/internal/tasklist"
)

type loadedMsg struct{ err error }

type opDoneMsg struct {
	op  string
	err error
}

type syncedMsg struct {
	err        error
	rolledBack bool
}

// Model is the bubbletea model for the board.
type Model struct {
	ctx  context.Context
	ctrl *tasklist.Controller
	r    *output.Renderer
	keys keyMap
	help help.Model

	tasks    []service.Task
	message  string
	cursor   int
	grabbed  bool
	grabFrom int
	grabID   string
	loading  bool
	lastSync *tasklist.Sync
}

// New creates a board over ctrl. Init loads the task list.
func New(ctx context.Context, ctrl *tasklist.Controller, r *output.Renderer) *Model {
	return &Model{
		ctx:     ctx,
		ctrl:    ctrl,
		r:       r,
		keys:    defaultKeyMap(),
		help:    help.New(),
		loading: true,
	}
}

// Run shows the board on out until the user quits, then waits up to
// syncTimeout for the last reorder to reach the store.
func Run(ctx context.Context, ctrl *tasklist.Controller, r *output.Renderer, in io.Reader, out io.Writer, syncTimeout time.Duration) error {
	m := New(ctx, ctrl, r)
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return m.WaitSync(syncTimeout)
}

// WaitSync waits for the most recent reorder sync, if any.
func (m *Model) WaitSync(timeout time.Duration) error {
	if m.lastSync == nil {
		return nil
	}
	select {
	case <-m.lastSync.Done():
		return m.lastSync.Wait()
	case <-time.After(timeout):
		return errors.New("task order may not have been saved")
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.load()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case loadedMsg:
		m.loading = false
		m.refresh()
		return m, nil

	case opDoneMsg, syncedMsg:
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Help) {
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.grabbed {
		switch {
		case key.Matches(msg, m.keys.Up):
			m.moveCursor(-1)
		case key.Matches(msg, m.keys.Down):
			m.moveCursor(1)
		case key.Matches(msg, m.keys.Cancel):
			m.grabbed = false
			m.cursor = m.grabFrom
		case key.Matches(msg, m.keys.Grab):
			return m, m.drop()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Grab):
		if task, ok := m.current(); ok {
			m.grabbed = true
			m.grabFrom = m.cursor
			m.grabID = task.ID
		}
	case key.Matches(msg, m.keys.Toggle):
		if task, ok := m.current(); ok {
			return m, m.run("toggle", func(ctx context.Context) error {
				_, err := m.ctrl.ToggleComplete(ctx, task.ID, !task.Completed)
				return err
			})
		}
	case key.Matches(msg, m.keys.Delete):
		if task, ok := m.current(); ok {
			return m, m.run("delete", func(ctx context.Context) error {
				return m.ctrl.Delete(ctx, task.ID)
			})
		}
	case key.Matches(msg, m.keys.Reload):
		m.loading = true
		return m, m.load()
	}
	return m, nil
}

// drop commits the grabbed task at the cursor. Local state changes before
// the returned command runs.
func (m *Model) drop() tea.Cmd {
	m.grabbed = false
	m.grabID = ""
	s := m.ctrl.Reorder(m.ctx, m.grabFrom, m.cursor)
	m.refresh()
	if !s.Applied() {
		return nil
	}
	m.lastSync = s
	return func() tea.Msg {
		err := s.Wait()
		return syncedMsg{err: err, rolledBack: s.RolledBack()}
	}
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.ctrl.Load(m.ctx)}
	}
}

func (m *Model) run(op string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(m.ctx)}
	}
}

func (m *Model) refresh() {
	m.tasks = m.ctrl.Tasks()
	m.message = m.ctrl.Message()
	if m.cursor >= len(m.tasks) {
		m.cursor = len(m.tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.grabbed {
		m.regrab()
	}
}

// regrab follows the grabbed task to its position in a changed list and
// drops the grab when the task is gone.
func (m *Model) regrab() {
	i := slices.IndexFunc(m.tasks, func(t service.Task) bool { return t.ID == m.grabID })
	if i < 0 {
		m.grabbed = false
		m.grabID = ""
		return
	}
	m.grabFrom = i
}

func (m *Model) moveCursor(delta int) {
	next := m.cursor + delta
	if next >= 0 && next < len(m.tasks) {
		m.cursor = next
	}
}

func (m *Model) current() (service.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return service.Task{}, false
	}
	return m.tasks[m.cursor], true
}

// display returns the rows as shown: while a task is grabbed it is drawn
// at the cursor.
func (m *Model) display() []service.Task {
	if !m.grabbed || m.grabFrom == m.cursor ||
		m.grabFrom < 0 || m.grabFrom >= len(m.tasks) || m.cursor >= len(m.tasks) {
		return m.tasks
	}
	return tasklist.Move(m.tasks, m.grabFrom, m.cursor)
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	title := m.r.Style().Bold(true).Foreground(m.r.Theme().Accent)
	if m.r.Plain() {
		b.WriteString("Tasks")
	} else {
		b.WriteString(title.Render("Tasks"))
	}
	if m.loading {
		b.WriteString("  loading...")
	}
	b.WriteString("\n\n")

	rows := m.display()
	if len(rows) == 0 && !m.loading {
		b.WriteString(output.EmptyMessage + "\n")
	}
	for i, task := range rows {
		marker := "  "
		switch {
		case m.grabbed && i == m.cursor:
			marker = "=>"
		case i == m.cursor:
			marker = "> "
		}
		fmt.Fprintf(&b, "%s %s %s  %s\n", marker, output.Checkbox(task.Completed), m.r.Title(task), m.r.Meta(task))
	}

	if m.message != "" {
		b.WriteString("\n")
		if m.r.Plain() {
			b.WriteString(m.message)
		} else {
			b.WriteString(m.r.Style().Foreground(m.r.Theme().Error).Render(m.message))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}
