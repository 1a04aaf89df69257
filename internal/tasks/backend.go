// Package tasks hands birthday reminders to whichever task manager the user
// runs.
package tasks

import "time"

// Task is a reminder as reported by a backend.
type Task struct {
	ID          string // UUID for taskwarrior
	Description string
	Status      string
	Tags        []string
	Created     time.Time
	Due         *time.Time
}

// Backend is a task manager that can hold reminders.
type Backend interface {
	// Name is the registry key, e.g. "taskwarrior"
	Name() string

	// IsEnabled reports whether the task manager is installed and usable
	IsEnabled() bool

	// CreateReminder adds a pending task tagged with tag, due on due
	CreateReminder(description, tag string, due time.Time) error

	// PendingReminders lists the pending tasks carrying tag
	PendingReminders(tag string) ([]Task, error)
}

// BackendFactory constructs a Backend
type BackendFactory func() Backend
