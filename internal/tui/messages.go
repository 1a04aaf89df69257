package tui

import (
	"context"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pdxmph/phonebook/internal/contacts"
)

// contactsLoadedMsg carries the result of a full list fetch. seq identifies
// the refresh that issued it.
type contactsLoadedMsg struct {
	seq      int
	contacts []*contacts.Contact
	err      error
}

// contactSavedMsg carries the result of a save. contact is the record that
// was handed to the provider.
type contactSavedMsg struct {
	contact *contacts.Contact
	err     error
}

// contactRemovedMsg carries the result of a remove.
type contactRemovedMsg struct {
	contact *contacts.Contact
	err     error
}

func findContacts(p contacts.Provider, timeout time.Duration, seq int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		list, err := p.Find(ctx, contacts.AllFields, contacts.FindOptions{Multiple: true})
		if err != nil {
			log.Printf("fetching contacts: %v", err)
		}
		return contactsLoadedMsg{seq: seq, contacts: list, err: err}
	}
}

func saveContact(p contacts.Provider, timeout time.Duration, c *contacts.Contact) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := p.Save(ctx, c)
		if err != nil {
			log.Printf("saving contact %q: %v", c.DisplayName, err)
		}
		return contactSavedMsg{contact: c, err: err}
	}
}

func removeContact(p contacts.Provider, timeout time.Duration, c *contacts.Contact) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := p.Remove(ctx, c)
		if err != nil {
			log.Printf("removing contact %q: %v", c.DisplayName, err)
		}
		return contactRemovedMsg{contact: c, err: err}
	}
}
