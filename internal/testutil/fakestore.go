// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"taskboard/internal/service"
)

// TokenSecret signs the tokens issued by FakeStore.
const TokenSecret = "fake-store-secret"

type fakeUser struct {
	user     service.User
	password string
}

// FakeStore is an in-memory implementation of service.Store and
// service.Accounts for testing. Tasks are kept in insertion order and
// returned unsorted, like a store that does not sort by order.
type FakeStore struct {
	mu     sync.RWMutex
	tasks  []service.Task
	users  map[string]fakeUser // email -> user
	tokens map[string]string   // token -> email
	calls  map[string]int
	active string // email of the last user to log in or register

	reorders [][]service.OrderEntry
	drafts   []service.Draft

	// Now is the store clock.
	Now func() time.Time

	// Error injection for testing
	ListTasksErr    error
	CreateTaskErr   error
	UpdateTaskErr   error
	DeleteTaskErr   error
	ReorderTasksErr error
	LoginErr        error
	RegisterErr     error
	MeErr           error
	LogoutErr       error

	// ReorderGate, when non-nil, blocks ReorderTasks until a value is
	// received or the channel is closed.
	ReorderGate chan struct{}

	// ListGate, when non-nil, blocks ListTasks the same way.
	ListGate chan struct{}

	// ListHold, when non-nil, blocks ListTasks after the tasks are read, so
	// the response is older than the store when it arrives. The read is
	// counted as a "snapshot" call.
	ListHold chan struct{}
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		users:  make(map[string]fakeUser),
		tokens: make(map[string]string),
		calls:  make(map[string]int),
		Now:    func() time.Time { return time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC) },
	}
}

// AddTask adds a task with the given order and returns it.
func (f *FakeStore) AddTask(id, title string, order int) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := service.Task{
		ID:        id,
		Title:     title,
		Priority:  service.PriorityMedium,
		Order:     order,
		CreatedAt: f.Now(),
	}
	f.tasks = append(f.tasks, t)
	return t
}

// PutTask adds or replaces a fully specified task.
func (f *FakeStore) PutTask(t service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := f.indexOf(t.ID); i >= 0 {
		f.tasks[i] = t
		return
	}
	f.tasks = append(f.tasks, t)
}

// SetOrder changes a stored task's order directly.
func (f *FakeStore) SetOrder(id string, order int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := f.indexOf(id); i >= 0 {
		f.tasks[i].Order = order
	}
}

// Snapshot returns the stored tasks in insertion order.
func (f *FakeStore) Snapshot() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.tasks)
}

// Calls returns how many times op was invoked.
func (f *FakeStore) Calls(op string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.calls[op]
}

// Reorders returns the payloads received by ReorderTasks.
func (f *FakeStore) Reorders() [][]service.OrderEntry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.reorders)
}

// Drafts returns the drafts received by CreateTask.
func (f *FakeStore) Drafts() []service.Draft {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.drafts)
}

// AddUser registers an account directly and returns its token.
func (f *FakeStore) AddUser(name, email, password string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := service.User{ID: uuid.NewString(), Name: name, Email: email}
	f.users[email] = fakeUser{user: u, password: password}
	return f.issueToken(u, email)
}

// ValidToken reports whether token was issued by this store.
func (f *FakeStore) ValidToken(token string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.tokens[token]
	return ok
}

func (f *FakeStore) record(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ListTasks implements service.Store.
func (f *FakeStore) ListTasks(ctx context.Context) ([]service.Task, error) {
	f.record("list")
	if err := wait(ctx, f.ListGate); err != nil {
		return nil, err
	}
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	tasks := f.Snapshot()
	if f.ListHold != nil {
		f.record("snapshot")
		if err := wait(ctx, f.ListHold); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

// CreateTask implements service.Store.
func (f *FakeStore) CreateTask(ctx context.Context, draft service.Draft) (service.Task, error) {
	f.record("create")
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	if strings.TrimSpace(draft.Title) == "" {
		return service.Task{}, fmt.Errorf("%w: title required", service.ErrValidation)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.drafts = append(f.drafts, draft)
	priority := draft.Priority
	if priority == "" {
		priority = service.DefaultPriority
	}
	t := service.Task{
		ID:          uuid.NewString(),
		Title:       draft.Title,
		Description: draft.Description,
		Priority:    priority,
		Order:       draft.Order,
		CreatedAt:   f.Now(),
	}
	f.tasks = append(f.tasks, t)
	return t, nil
}

// UpdateTask implements service.Store.
func (f *FakeStore) UpdateTask(ctx context.Context, id string, patch service.Patch) (service.Task, error) {
	f.record("update")
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return service.Task{}, fmt.Errorf("%w: invalid priority", service.ErrValidation)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.indexOf(id)
	if i < 0 {
		return service.Task{}, service.ErrNotFound
	}
	t := &f.tasks[i]
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	return *t, nil
}

// DeleteTask implements service.Store.
func (f *FakeStore) DeleteTask(ctx context.Context, id string) error {
	f.record("delete")
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.indexOf(id)
	if i < 0 {
		return service.ErrNotFound
	}
	f.tasks = slices.Delete(f.tasks, i, i+1)
	return nil
}

// ReorderTasks implements service.Store.
func (f *FakeStore) ReorderTasks(ctx context.Context, entries []service.OrderEntry) error {
	f.record("reorder")
	if err := wait(ctx, f.ReorderGate); err != nil {
		return err
	}
	if f.ReorderTasksErr != nil {
		return f.ReorderTasksErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reorders = append(f.reorders, slices.Clone(entries))
	for _, e := range entries {
		if i := f.indexOf(e.ID); i >= 0 {
			f.tasks[i].Order = e.Order
		}
	}
	return nil
}

// Login implements service.Accounts.
func (f *FakeStore) Login(ctx context.Context, email, password string) (service.Credentials, error) {
	f.record("login")
	if f.LoginErr != nil {
		return service.Credentials{}, f.LoginErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[email]
	if !ok || u.password != password {
		return service.Credentials{}, &service.APIError{Status: 401, Message: "Invalid credentials"}
	}
	return service.Credentials{Token: f.issueToken(u.user, email), User: u.user}, nil
}

// Register implements service.Accounts.
func (f *FakeStore) Register(ctx context.Context, name, email, password string) (service.Credentials, error) {
	f.record("register")
	if f.RegisterErr != nil {
		return service.Credentials{}, f.RegisterErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.users[email]; exists {
		return service.Credentials{}, &service.APIError{Status: 400, Message: "User already exists"}
	}
	u := service.User{ID: uuid.NewString(), Name: name, Email: email}
	f.users[email] = fakeUser{user: u, password: password}
	return service.Credentials{Token: f.issueToken(u, email), User: u}, nil
}

// Me implements service.Accounts. The fake has no request context, so it
// returns the user a token was most recently issued to.
func (f *FakeStore) Me(ctx context.Context) (service.User, error) {
	f.record("me")
	if f.MeErr != nil {
		return service.User{}, f.MeErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	u, ok := f.users[f.active]
	if !ok {
		return service.User{}, service.ErrUnauthorized
	}
	return u.user, nil
}

// MeByToken returns the user a token was issued to.
func (f *FakeStore) MeByToken(token string) (service.User, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	email, ok := f.tokens[token]
	if !ok {
		return service.User{}, false
	}
	return f.users[email].user, true
}

// Logout implements service.Accounts.
func (f *FakeStore) Logout(ctx context.Context) error {
	f.record("logout")
	return f.LogoutErr
}

// issueToken must be called with f.mu held.
func (f *FakeStore) issueToken(u service.User, email string) string {
	claims := jwt.RegisteredClaims{
		Subject:   u.ID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(TokenSecret))
	if err != nil {
		panic(err)
	}
	f.tokens[tok] = email
	f.active = email
	return tok
}

// indexOf must be called with f.mu held.
func (f *FakeStore) indexOf(id string) int {
	return slices.IndexFunc(f.tasks, func(t service.Task) bool { return t.ID == id })
}
