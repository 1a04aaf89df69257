package db

import (
	"context"
	"fmt"
	"time"

	"github.com/pdxmph/phonebook/internal/contacts"
)

// CreateFixturesDatabase creates a test database with realistic sample data
func CreateFixturesDatabase(dbPath string) error {
	// Initialize empty database
	if err := Initialize(dbPath); err != nil {
		return fmt.Errorf("initializing fixtures database: %w", err)
	}

	// Open database to add test data
	database, err := Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening fixtures database: %w", err)
	}
	defer database.Close()

	ctx := context.Background()
	for _, c := range Fixtures(time.Now()) {
		if err := database.Save(ctx, c); err != nil {
			return fmt.Errorf("adding fixture contact %s: %w", c.DisplayName, err)
		}
	}

	return nil
}

// Fixtures returns unsaved sample contacts. One of them has a birthday on the
// month and day of now.
func Fixtures(now time.Time) []*contacts.Contact {
	birthday := func(year int, month time.Month, day int) *time.Time {
		t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		return &t
	}
	person := func(given, family, phone, email string, b *time.Time) *contacts.Contact {
		c := contacts.Create(contacts.Contact{
			DisplayName: given + " " + family,
			Name:        contacts.Name{GivenName: given, FamilyName: family},
			Birthday:    b,
		})
		if phone != "" {
			c.PhoneNumbers = []contacts.Field{{Type: contacts.PhoneMobile, Value: phone, Pref: true}}
		}
		if email != "" {
			c.Emails = []contacts.Field{{Type: contacts.EmailHome, Value: email}}
		}
		return c
	}

	fixtures := []*contacts.Contact{
		person("Sarah", "Chen", "555-0101", "sarah.chen@email.com", birthday(1988, time.February, 9)),
		person("Marcus", "Williams", "555-0102", "marcus.w@company.com", nil),
		person("Alex", "Thompson", "555-0104", "alex.thompson@email.com", birthday(1991, time.November, 30)),
		person("Jennifer", "Rodriguez", "555-0105", "jen.rodriguez@company.com", nil),
		person("David", "Kim", "555-0106", "d.kim@startup.io", birthday(1979, time.June, 21)),
		person("Lisa", "Park", "555-0107", "lisa.park@consulting.com", nil),
		person("Robert", "Martinez", "", "r.martinez@venture.capital", nil),
		person("Emily", "Zhang", "555-0108", "emily.zhang@freelance.com", birthday(1995, time.August, 2)),
		person("Mike", "Johnson", "555-0109", "mike.j@social.com", nil),
		person("Rachel", "Green", "", "rachel.green@book.club", nil),
		person("Amanda", "Foster", "555-0112", "amanda@tech.recruiting", nil),
		// Birthday today, whatever today is
		person("Ana", "Lee", "555-1234", "a@x.com", birthday(1992, now.Month(), now.Day())),
	}

	// A contact with more than one number and address
	fixtures[1].PhoneNumbers = append(fixtures[1].PhoneNumbers,
		contacts.Field{Type: "work", Value: "555-0199"})
	fixtures[1].Emails = append(fixtures[1].Emails,
		contacts.Field{Type: "work", Value: "marcus@design.studio"})

	return fixtures
}
