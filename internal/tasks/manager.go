package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/pdxmph/phonebook/internal/contacts"
)

// preferred lists the backends tried, in order, when none is named.
var preferred = []string{"taskwarrior"}

// Manager binds the contacts provider to the selected task backend.
type Manager struct {
	backend Backend
}

// NewManager selects a backend by name. An empty name picks the first
// enabled preferred backend, falling back to noop.
func NewManager(backendName string) (*Manager, error) {
	if backendName != "" {
		backend, err := CreateBackend(backendName)
		if err != nil {
			return nil, fmt.Errorf("creating backend %s: %w", backendName, err)
		}
		return NewManagerWith(backend), nil
	}

	for _, name := range preferred {
		if b, err := CreateBackend(name); err == nil && b.IsEnabled() {
			return NewManagerWith(b), nil
		}
	}

	backend, err := CreateBackend("noop")
	if err != nil {
		return nil, err
	}
	return NewManagerWith(backend), nil
}

// NewManagerWith wraps an already constructed backend
func NewManagerWith(backend Backend) *Manager {
	return &Manager{backend: backend}
}

// Name returns the selected backend's name
func (m *Manager) Name() string {
	return m.backend.Name()
}

// IsEnabled reports whether the selected backend can create reminders
func (m *Manager) IsEnabled() bool {
	return m.backend.IsEnabled()
}

// RemindBirthdays creates today's birthday reminders through the backend.
// A dry run only reports them. A disabled backend is an error unless dryRun
// is set.
func (m *Manager) RemindBirthdays(ctx context.Context, provider contacts.Provider, now time.Time, dryRun bool) ([]string, error) {
	if !dryRun && !m.IsEnabled() {
		return nil, fmt.Errorf("task backend %q is not available", m.Name())
	}
	return BirthdayReminders(ctx, provider, m.backend, now, dryRun)
}
