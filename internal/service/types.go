// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"fmt"
	"strings"
	"time"
)

// Priority is a task priority level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// DefaultPriority is used when a draft does not name one.
const DefaultPriority = PriorityMedium

// ParsePriority parses a priority name (case-insensitive, trimmed).
// An empty string yields DefaultPriority.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultPriority, nil
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	}
	return "", fmt.Errorf("%w: invalid priority: %s", ErrValidation, s)
}

// Valid reports whether p is one of the known levels.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Label returns the capitalized priority name ("High"); unknown values read as medium.
func (p Priority) Label() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityHigh:
		return "High"
	default:
		return "Medium"
	}
}

// Task represents a single task record as returned by the store.
type Task struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    Priority  `json:"priority"`
	Completed   bool      `json:"completed"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Draft holds the fields for a new task.
type Draft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Order       int      `json:"order"`
}

// Validate normalizes the draft in place and checks required fields.
func (d *Draft) Validate() error {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return fmt.Errorf("%w: title required", ErrValidation)
	}
	if d.Priority == "" {
		d.Priority = DefaultPriority
	}
	if !d.Priority.Valid() {
		return fmt.Errorf("%w: invalid priority: %s", ErrValidation, d.Priority)
	}
	return nil
}

// Patch is a partial update. Nil fields are left untouched by the store.
type Patch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	Completed   *bool     `json:"completed,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil && p.Completed == nil
}

// Validate checks the fields that are set.
func (p Patch) Validate() error {
	if p.Empty() {
		return fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title required", ErrValidation)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("%w: invalid priority: %s", ErrValidation, *p.Priority)
	}
	return nil
}

// OrderEntry maps a task ID to its display position in a batch reorder.
type OrderEntry struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

// User is the account owning a task set.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Credentials is the result of a successful login or registration.
type Credentials struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
