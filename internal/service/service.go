// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Store is the remote task store.
// All task backend calls go through this interface; commands and the task
// list controller never import a backend SDK directly.
type Store interface {
	// ListTasks returns the user's full task set in store order.
	ListTasks(ctx context.Context) ([]Task, error)

	// CreateTask creates a task and returns the stored record.
	CreateTask(ctx context.Context, draft Draft) (Task, error)

	// UpdateTask applies a partial update and returns the full stored record.
	UpdateTask(ctx context.Context, id string, patch Patch) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id string) error

	// ReorderTasks stores a complete id -> order mapping in one request.
	ReorderTasks(ctx context.Context, entries []OrderEntry) error
}

// Accounts is implemented by stores that manage their own user accounts.
// Callers discover it with a type assertion on a Store.
type Accounts interface {
	Login(ctx context.Context, email, password string) (Credentials, error)
	Register(ctx context.Context, name, email, password string) (Credentials, error)
	Me(ctx context.Context) (User, error)
	Logout(ctx context.Context) error
}
