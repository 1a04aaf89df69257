package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/pdxmph/phonebook/internal/contacts"
)

// BirthdayTag is attached to every birthday reminder.
const BirthdayTag = "birthday"

// birthdayFinder is implemented by providers that can look birthdays up
// directly instead of scanning every contact.
type birthdayFinder interface {
	BirthdaysOn(ctx context.Context, t time.Time) ([]*contacts.Contact, error)
}

// BirthdaysToday returns the contacts whose birthday is on now's month and day.
func BirthdaysToday(ctx context.Context, provider contacts.Provider, now time.Time) ([]*contacts.Contact, error) {
	if bf, ok := provider.(birthdayFinder); ok {
		return bf.BirthdaysOn(ctx, now)
	}

	all, err := provider.Find(ctx, contacts.AllFields, contacts.FindOptions{Multiple: true})
	if err != nil {
		return nil, err
	}
	var today []*contacts.Contact
	for _, c := range all {
		if c.IsBirthday(now) {
			today = append(today, c)
		}
	}
	return today, nil
}

// ReminderText is the task description for a contact's birthday.
func ReminderText(c *contacts.Contact) string {
	return fmt.Sprintf("Wish %s a happy birthday", c.DisplayName)
}

// BirthdayReminders creates a reminder task for every contact whose birthday
// is today, skipping contacts that already have one pending. It returns the
// descriptions it created, or would create when dryRun is set.
func BirthdayReminders(ctx context.Context, provider contacts.Provider, backend Backend, now time.Time, dryRun bool) ([]string, error) {
	today, err := BirthdaysToday(ctx, provider, now)
	if err != nil {
		return nil, fmt.Errorf("finding birthdays: %w", err)
	}
	if len(today) == 0 {
		return nil, nil
	}

	pending, err := backend.PendingReminders(BirthdayTag)
	if err != nil {
		return nil, fmt.Errorf("listing pending reminders: %w", err)
	}
	existing := make(map[string]bool, len(pending))
	for _, t := range pending {
		existing[t.Description] = true
	}

	var created []string
	for _, c := range today {
		text := ReminderText(c)
		if existing[text] {
			continue
		}
		if !dryRun {
			if err := backend.CreateReminder(text, BirthdayTag, now); err != nil {
				return created, fmt.Errorf("creating reminder for %s: %w", c.DisplayName, err)
			}
		}
		existing[text] = true
		created = append(created, text)
	}
	return created, nil
}
