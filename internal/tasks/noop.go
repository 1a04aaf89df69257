package tasks

import (
	"errors"
	"time"
)

// ErrNoBackend is returned when reminders are created without a task manager.
var ErrNoBackend = errors.New("no task backend configured")

// NoopBackend stands in when no task manager is installed. It holds no
// reminders and refuses to create any.
type NoopBackend struct{}

// NewNoopBackend creates a new no-op backend
func NewNoopBackend() Backend {
	return &NoopBackend{}
}

func (n *NoopBackend) Name() string {
	return "noop"
}

func (n *NoopBackend) IsEnabled() bool {
	return false
}

func (n *NoopBackend) CreateReminder(description, tag string, due time.Time) error {
	return ErrNoBackend
}

func (n *NoopBackend) PendingReminders(tag string) ([]Task, error) {
	return nil, nil
}

func init() {
	Register("noop", func() Backend { return NewNoopBackend() })
}
