package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pdxmph/phonebook/internal/contacts"
)

type fakeBackend struct {
	pending  []Task
	created  []string
	failNext error
}

func (f *fakeBackend) Name() string    { return "fake" }
func (f *fakeBackend) IsEnabled() bool { return true }

func (f *fakeBackend) CreateReminder(description, tag string, due time.Time) error {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.created = append(f.created, description)
	f.pending = append(f.pending, Task{Description: description, Status: "pending", Tags: []string{tag}, Due: &due})
	return nil
}

func (f *fakeBackend) PendingReminders(tag string) ([]Task, error) {
	return f.pending, nil
}

func birthday(month time.Month, day int) *time.Time {
	b := time.Date(1985, month, day, 0, 0, 0, 0, time.UTC)
	return &b
}

func seededProvider() *contacts.MemoryProvider {
	return contacts.NewMemoryProvider(
		&contacts.Contact{DisplayName: "Ana Lee", Birthday: birthday(time.June, 3)},
		&contacts.Contact{DisplayName: "Marcus Williams", Birthday: birthday(time.June, 4)},
		&contacts.Contact{DisplayName: "Priya Patel", Birthday: birthday(time.June, 3)},
		&contacts.Contact{DisplayName: "No Birthday"},
	)
}

var june3 = time.Date(2026, time.June, 3, 9, 0, 0, 0, time.UTC)

func TestBirthdaysToday(t *testing.T) {
	got, err := BirthdaysToday(context.Background(), seededProvider(), june3)
	if err != nil {
		t.Fatalf("BirthdaysToday: %v", err)
	}
	if len(got) != 2 || got[0].DisplayName != "Ana Lee" || got[1].DisplayName != "Priya Patel" {
		t.Errorf("got %v, want Ana Lee and Priya Patel", names(got))
	}
}

func TestBirthdayReminders_CreatesOnePerContact(t *testing.T) {
	// Given: two birthdays today and nothing pending
	backend := &fakeBackend{}

	// When: reminders are created
	created, err := BirthdayReminders(context.Background(), seededProvider(), backend, june3, false)
	if err != nil {
		t.Fatalf("BirthdayReminders: %v", err)
	}

	// Then: one task per contact reaches the backend
	want := []string{"Wish Ana Lee a happy birthday", "Wish Priya Patel a happy birthday"}
	if !equal(created, want) || !equal(backend.created, want) {
		t.Errorf("created = %v, backend = %v, want %v", created, backend.created, want)
	}
}

func TestBirthdayReminders_SkipsPending(t *testing.T) {
	// Given: Ana already has a pending reminder
	backend := &fakeBackend{pending: []Task{{Description: "Wish Ana Lee a happy birthday", Status: "pending"}}}

	// When: reminders run twice
	first, err := BirthdayReminders(context.Background(), seededProvider(), backend, june3, false)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := BirthdayReminders(context.Background(), seededProvider(), backend, june3, false)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	// Then: only Priya is added, and the second run adds nothing
	if !equal(first, []string{"Wish Priya Patel a happy birthday"}) {
		t.Errorf("first run created %v", first)
	}
	if len(second) != 0 {
		t.Errorf("second run created %v, want none", second)
	}
}

func TestBirthdayReminders_DryRun(t *testing.T) {
	backend := &fakeBackend{}

	created, err := BirthdayReminders(context.Background(), seededProvider(), backend, june3, true)
	if err != nil {
		t.Fatalf("BirthdayReminders: %v", err)
	}
	if len(created) != 2 {
		t.Errorf("dry run reported %v, want 2 reminders", created)
	}
	if len(backend.created) != 0 {
		t.Errorf("dry run reached the backend: %v", backend.created)
	}
}

func TestBirthdayReminders_BackendError(t *testing.T) {
	backend := &fakeBackend{failNext: errors.New("task exited 2")}

	created, err := BirthdayReminders(context.Background(), seededProvider(), backend, june3, false)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(created) != 0 {
		t.Errorf("created = %v, want none before the failure", created)
	}
}

func TestBirthdayReminders_ProviderError(t *testing.T) {
	provider := seededProvider()
	provider.FailNext(contacts.OpFind, contacts.IOError)

	_, err := BirthdayReminders(context.Background(), provider, &fakeBackend{}, june3, false)
	if contacts.CodeOf(err) != contacts.IOError {
		t.Errorf("code = %v, want IO_ERROR", contacts.CodeOf(err))
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("b", func() Backend { return NewNoopBackend() }); err != nil {
		t.Fatal(err)
	}
	if err := r.Register("a", func() Backend { return &fakeBackend{} }); err != nil {
		t.Fatal(err)
	}
	if err := r.Register("a", func() Backend { return &fakeBackend{} }); err == nil {
		t.Error("duplicate registration should fail")
	}
	if got := r.List(); !equal(got, []string{"a", "b"}) {
		t.Errorf("List() = %v, want [a b]", got)
	}
	if err := r.Register("", func() Backend { return &fakeBackend{} }); err == nil {
		t.Error("empty name should fail")
	}
	if _, err := r.Create("missing"); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Create(missing) err = %v, want ErrUnknownBackend", err)
	}
	b, err := r.Create("a")
	if err != nil || b.Name() != "fake" {
		t.Errorf("Create(a) = %v, %v", b, err)
	}
}

func TestNewManager_Noop(t *testing.T) {
	m, err := NewManager("noop")
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if m.Name() != "noop" || m.IsEnabled() {
		t.Errorf("manager = %s enabled=%v, want disabled noop", m.Name(), m.IsEnabled())
	}
	if _, err := NewManager("nope"); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("NewManager(nope) err = %v, want ErrUnknownBackend", err)
	}
}

func names(list []*contacts.Contact) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.DisplayName
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestManager_RemindBirthdays(t *testing.T) {
	t.Run("disabled backend refuses", func(t *testing.T) {
		m := NewManagerWith(NewNoopBackend())
		if _, err := m.RemindBirthdays(context.Background(), seededProvider(), june3, false); err == nil {
			t.Error("expected error for a disabled backend")
		}
	})

	t.Run("disabled backend dry run", func(t *testing.T) {
		m := NewManagerWith(NewNoopBackend())
		created, err := m.RemindBirthdays(context.Background(), seededProvider(), june3, true)
		if err != nil || len(created) != 2 {
			t.Errorf("created = %v, err = %v; want 2 reminders", created, err)
		}
	})

	t.Run("enabled backend", func(t *testing.T) {
		backend := &fakeBackend{}
		m := NewManagerWith(backend)
		if _, err := m.RemindBirthdays(context.Background(), seededProvider(), june3, false); err != nil {
			t.Fatalf("RemindBirthdays: %v", err)
		}
		if len(backend.created) != 2 {
			t.Errorf("backend got %v", backend.created)
		}
	})
}

func TestNoopBackend(t *testing.T) {
	b := NewNoopBackend()
	if err := b.CreateReminder("x", BirthdayTag, june3); !errors.Is(err, ErrNoBackend) {
		t.Errorf("CreateReminder = %v, want ErrNoBackend", err)
	}
	if pending, err := b.PendingReminders(BirthdayTag); err != nil || len(pending) != 0 {
		t.Errorf("PendingReminders = %v, %v", pending, err)
	}
}
