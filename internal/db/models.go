package db

import (
	"database/sql"
	"time"

	"github.com/pdxmph/phonebook/internal/contacts"
)

// Field kinds stored in contact_fields
const (
	kindPhone = "phone"
	kindEmail = "email"
	kindPhoto = "photo"
)

// contactRow is a row of the contacts table
type contactRow struct {
	ID          string
	DisplayName string
	GivenName   string
	FamilyName  string
	Birthday    sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// toContact converts a row into a record without its multi-valued fields
func (r contactRow) toContact() (*contacts.Contact, error) {
	c := &contacts.Contact{
		ID:          r.ID,
		DisplayName: r.DisplayName,
		Name: contacts.Name{
			GivenName:  r.GivenName,
			FamilyName: r.FamilyName,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Birthday.Valid {
		b, err := contacts.ParseBirthday(r.Birthday.String)
		if err != nil {
			return nil, err
		}
		c.Birthday = b
	}
	return c, nil
}

// appendField attaches a stored field to the matching slice of c
func appendField(c *contacts.Contact, kind string, f contacts.Field) {
	switch kind {
	case kindPhone:
		c.PhoneNumbers = append(c.PhoneNumbers, f)
	case kindEmail:
		c.Emails = append(c.Emails, f)
	case kindPhoto:
		c.Photos = append(c.Photos, f)
	}
}

// NewNullString creates a sql.NullString from a string
func NewNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
