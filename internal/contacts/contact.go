// Package contacts defines the contact record owned by a Provider and the
// contract the screen uses to read and write it.
package contacts

import (
	"fmt"
	"strings"
	"time"
)

// BirthdayLayout is the calendar date layout used by forms and storage.
const BirthdayLayout = "2006-01-02"

// Field types written by the contact form.
const (
	PhoneMobile = "mobile"
	EmailHome   = "home"
	PhotoBase64 = "base64"
)

// Name holds the structured parts of a contact's name
type Name struct {
	GivenName  string `yaml:"given_name,omitempty"`
	FamilyName string `yaml:"family_name,omitempty"`
}

// Field is one typed entry of a multi-valued attribute (phone, email, photo)
type Field struct {
	Type  string `yaml:"type,omitempty"`
	Value string `yaml:"value"`
	Pref  bool   `yaml:"pref,omitempty"`
}

// Contact is a provider-managed contact record.
//
// Providers keep every phone, email and photo entry. The screen only reads
// and writes the first phone and the first email.
type Contact struct {
	ID           string
	DisplayName  string
	Name         Name
	PhoneNumbers []Field
	Emails       []Field
	Photos       []Field
	Birthday     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Create returns an unsaved contact built from fields, the way a device
// contacts API hands back a handle before save is called.
func Create(fields Contact) *Contact {
	c := fields.Clone()
	c.ID = ""
	c.CreatedAt = time.Time{}
	c.UpdatedAt = time.Time{}
	return c
}

// Clone returns a deep copy of the contact
func (c *Contact) Clone() *Contact {
	out := *c
	out.PhoneNumbers = cloneFields(c.PhoneNumbers)
	out.Emails = cloneFields(c.Emails)
	out.Photos = cloneFields(c.Photos)
	if c.Birthday != nil {
		b := *c.Birthday
		out.Birthday = &b
	}
	return &out
}

func cloneFields(fields []Field) []Field {
	if fields == nil {
		return nil
	}
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// FirstPhone returns the value of the first phone entry, or ""
func (c *Contact) FirstPhone() string {
	if len(c.PhoneNumbers) == 0 {
		return ""
	}
	return c.PhoneNumbers[0].Value
}

// FirstEmail returns the value of the first email entry, or ""
func (c *Contact) FirstEmail() string {
	if len(c.Emails) == 0 {
		return ""
	}
	return c.Emails[0].Value
}

// FullName joins given and family name with a single space.
func (n Name) FullName() string {
	return n.GivenName + " " + n.FamilyName
}

// IsBirthday reports whether the contact's birthday falls on the month and
// day of now. The year is ignored.
func (c *Contact) IsBirthday(now time.Time) bool {
	if c.Birthday == nil {
		return false
	}
	return c.Birthday.Month() == now.Month() && c.Birthday.Day() == now.Day()
}

// ParseBirthday parses a YYYY-MM-DD form value. An empty value means no
// birthday.
func ParseBirthday(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(BirthdayLayout, value)
	if err != nil {
		return nil, fmt.Errorf("parsing birthday %q: %w", value, err)
	}
	return &t, nil
}

// FormatBirthday renders a birthday for a form input, or "" when unset.
func FormatBirthday(b *time.Time) string {
	if b == nil {
		return ""
	}
	return b.Format(BirthdayLayout)
}
