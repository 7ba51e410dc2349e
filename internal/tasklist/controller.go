// Package tasklist keeps the ordered, in-memory view of a user's tasks in
// step with the remote store.
//
// Mutations other than reorder wait for the store and then apply the
// store's answer. Reorder is optimistic: the new order is visible as soon as
// Reorder returns, the store is updated in the background, and a failed
// update is rolled back by reloading the authoritative list.
package tasklist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"taskboard/internal/logger"
	"taskboard/internal/service"
)

// Messages shown in the transient message area.
const (
	MsgLoadFailed    = "Failed to fetch tasks"
	MsgCreateFailed  = "Failed to add task"
	MsgUpdateFailed  = "Failed to update task"
	MsgDeleteFailed  = "Failed to delete task"
	MsgReorderFailed = "Failed to update task order"
)

// ErrClosed is returned when a response arrives after Close.
var ErrClosed = errors.New("task list closed")

// Error is a failed store operation as surfaced to the user.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", strings.ToLower(e.Message), e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Controller owns the ordered task sequence.
type Controller struct {
	store service.Store
	log   *slog.Logger

	mu       sync.Mutex
	tasks    []service.Task
	message  string
	loadSeq  uint64
	lastSync *Sync
	closed   bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for store and sync events.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates an empty controller over store. Call Load to populate it.
func New(store service.Store, opts ...Option) *Controller {
	c := &Controller{
		store: store,
		log:   logger.Get(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "tasklist")
	return c
}

// Tasks returns a copy of the current sequence in display order.
func (c *Controller) Tasks() []service.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.tasks)
}

// Len returns the number of tasks.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tasks)
}

// At returns the task displayed at index.
func (c *Controller) At(index int) (service.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !inRange(index, len(c.tasks)) {
		return service.Task{}, false
	}
	return c.tasks[index], true
}

// Message returns the most recent failure message, or "".
func (c *Controller) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// ClearMessage dismisses the current message.
func (c *Controller) ClearMessage() {
	c.setMessage("")
}

// Close detaches the controller. Responses that arrive afterwards are
// discarded; in-flight requests are not aborted.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Load fetches the full task set and replaces local state with it, sorted
// by order. On failure local state is left unchanged.
//
// A response is dropped when a newer Load or a Reorder started while it was
// in flight; the newer operation decides the state.
func (c *Controller) Load(ctx context.Context) error {
	_, err := c.load(ctx)
	return err
}

// load reports whether the response was applied.
func (c *Controller) load(ctx context.Context) (bool, error) {
	c.mu.Lock()
	c.loadSeq++
	seq := c.loadSeq
	c.mu.Unlock()

	tasks, err := c.store.ListTasks(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrClosed
	}
	if seq != c.loadSeq {
		c.log.Debug("discarding stale load", "seq", seq, "latest", c.loadSeq, "err", err)
		return false, nil
	}
	if err != nil {
		c.message = MsgLoadFailed
		c.log.Warn("load failed", "err", err)
		return false, &Error{Message: MsgLoadFailed, Err: err}
	}
	c.tasks = Normalize(tasks)
	c.message = ""
	c.log.Debug("loaded", "tasks", len(c.tasks))
	return true, nil
}

// Create validates draft, places it after the current last task and adds
// the stored record once the store confirms it.
func (c *Controller) Create(ctx context.Context, draft service.Draft) (service.Task, error) {
	if err := draft.Validate(); err != nil {
		c.setMessage(MsgCreateFailed)
		return service.Task{}, &Error{Message: MsgCreateFailed, Err: err}
	}

	c.mu.Lock()
	draft.Order = NextOrder(c.tasks)
	c.mu.Unlock()

	task, err := c.store.CreateTask(ctx, draft)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return service.Task{}, ErrClosed
	}
	if err != nil {
		c.message = MsgCreateFailed
		c.log.Warn("create failed", "err", err)
		return service.Task{}, &Error{Message: MsgCreateFailed, Err: err}
	}
	c.tasks = append(c.tasks, task)
	c.log.Debug("created", "id", task.ID, "order", task.Order)
	return task, nil
}

// Update sends patch and replaces the local record with the store's full
// record.
func (c *Controller) Update(ctx context.Context, id string, patch service.Patch) (service.Task, error) {
	if err := patch.Validate(); err != nil {
		c.setMessage(MsgUpdateFailed)
		return service.Task{}, &Error{Message: MsgUpdateFailed, Err: err}
	}

	task, err := c.store.UpdateTask(ctx, id, patch)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return service.Task{}, ErrClosed
	}
	if err != nil {
		c.message = MsgUpdateFailed
		c.log.Warn("update failed", "id", id, "err", err)
		return service.Task{}, &Error{Message: MsgUpdateFailed, Err: err}
	}
	if i := c.indexOf(id); i >= 0 {
		c.tasks[i] = task
	}
	return task, nil
}

// ToggleComplete sets the completed flag of a task.
func (c *Controller) ToggleComplete(ctx context.Context, id string, completed bool) (service.Task, error) {
	return c.Update(ctx, id, service.Patch{Completed: &completed})
}

// Delete removes a task from the store and then from local state.
func (c *Controller) Delete(ctx context.Context, id string) error {
	err := c.store.DeleteTask(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if err != nil {
		c.message = MsgDeleteFailed
		c.log.Warn("delete failed", "id", id, "err", err)
		return &Error{Message: MsgDeleteFailed, Err: err}
	}
	if i := c.indexOf(id); i >= 0 {
		c.tasks = slices.Delete(c.tasks, i, i+1)
	}
	return nil
}

// Reorder moves the task at from to position to and renumbers every order.
// The new sequence is visible through Tasks before Reorder returns; the
// store is updated in the background. If the store rejects the new order the
// list is reloaded from the store.
//
// Out-of-range indices are a no-op: nothing changes and no request is sent.
//
// Syncs are delivered to the store in the order Reorder was called. A
// failed sync only triggers the reload when no newer reorder is queued
// behind it.
func (c *Controller) Reorder(ctx context.Context, from, to int) *Sync {
	c.mu.Lock()
	if c.closed || !inRange(from, len(c.tasks)) || !inRange(to, len(c.tasks)) {
		n := len(c.tasks)
		c.mu.Unlock()
		c.log.Debug("reorder ignored", "from", from, "to", to, "len", n)
		return noopSync()
	}
	c.tasks = Move(c.tasks, from, to)
	// Loads already in flight read the order from before this move.
	c.loadSeq++
	entries := Entries(c.tasks)
	s := newSync(true)
	prev := c.lastSync
	c.lastSync = s
	c.mu.Unlock()

	c.log.Debug("reordered", "from", from, "to", to)
	go c.sync(context.WithoutCancel(ctx), s, prev, entries)
	return s
}

func (c *Controller) sync(ctx context.Context, s *Sync, prev *Sync, entries []service.OrderEntry) {
	defer close(s.done)
	if prev != nil {
		<-prev.done
	}

	err := c.store.ReorderTasks(ctx, entries)
	if err == nil {
		return
	}
	s.err = &Error{Message: MsgReorderFailed, Err: err}

	c.mu.Lock()
	latest := c.lastSync == s
	closed := c.closed
	if !closed {
		c.message = MsgReorderFailed
	}
	c.mu.Unlock()

	if closed {
		return
	}
	c.log.Warn("reorder sync failed", "err", err, "reload", latest)
	if !latest {
		return
	}

	applied, lerr := c.load(ctx)
	if lerr != nil {
		c.log.Warn("reload after failed reorder failed", "err", lerr)
		return
	}
	if !applied {
		// A reorder issued during the reload now owns the state.
		return
	}
	s.rolledBack = true
	c.setMessage(MsgReorderFailed)
}

func (c *Controller) setMessage(msg string) {
	c.mu.Lock()
	c.message = msg
	c.mu.Unlock()
}

// indexOf must be called with c.mu held.
func (c *Controller) indexOf(id string) int {
	return slices.IndexFunc(c.tasks, func(t service.Task) bool { return t.ID == id })
}
