package contacts

import (
	"context"
	"sort"
	"strings"
)

// Field names accepted by Find.
const (
	FieldAll          = "*"
	FieldDisplayName  = "displayName"
	FieldName         = "name"
	FieldPhoneNumbers = "phoneNumbers"
	FieldEmails       = "emails"
	FieldBirthday     = "birthday"
)

// AllFields selects every searchable field.
var AllFields = []string{FieldAll}

// FindOptions controls a Find call
type FindOptions struct {
	// Filter is matched case-insensitively against the selected fields.
	// Empty matches every contact.
	Filter string
	// Multiple returns every match. When false at most one is returned.
	Multiple bool
}

// Provider is the contacts store the screen reads from and writes to. It owns
// persistence and identity of records. Implementations must be safe for
// concurrent use.
type Provider interface {
	// Save creates the contact when its ID is empty, otherwise updates it.
	// The provider sets ID and timestamps on c.
	Save(ctx context.Context, c *Contact) error

	// Remove deletes the contact.
	Remove(ctx context.Context, c *Contact) error

	// Find returns contacts whose selected fields match opts.Filter.
	Find(ctx context.Context, fields []string, opts FindOptions) ([]*Contact, error)
}

// Match reports whether c matches filter on any of the named fields.
func Match(c *Contact, fields []string, filter string) bool {
	if filter == "" {
		return true
	}
	filter = strings.ToLower(filter)
	for _, name := range fields {
		for _, text := range fieldText(c, name) {
			if strings.Contains(strings.ToLower(text), filter) {
				return true
			}
		}
	}
	return false
}

func fieldText(c *Contact, name string) []string {
	switch name {
	case FieldAll:
		var all []string
		for _, n := range []string{FieldDisplayName, FieldName, FieldPhoneNumbers, FieldEmails, FieldBirthday} {
			all = append(all, fieldText(c, n)...)
		}
		return all
	case FieldDisplayName:
		return []string{c.DisplayName}
	case FieldName:
		return []string{c.Name.GivenName, c.Name.FamilyName}
	case FieldPhoneNumbers:
		return values(c.PhoneNumbers)
	case FieldEmails:
		return values(c.Emails)
	case FieldBirthday:
		if c.Birthday == nil {
			return nil
		}
		return []string{FormatBirthday(c.Birthday)}
	}
	return nil
}

func values(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Value
	}
	return out
}

// Filter applies fields, opts and the provider ordering to a full set of
// contacts. Providers that load everything and filter in memory share it.
func Filter(all []*Contact, fields []string, opts FindOptions) []*Contact {
	if len(fields) == 0 {
		fields = AllFields
	}
	var matched []*Contact
	for _, c := range all {
		if Match(c, fields, opts.Filter) {
			matched = append(matched, c)
		}
	}
	SortByDisplayName(matched)
	if !opts.Multiple && len(matched) > 1 {
		matched = matched[:1]
	}
	return matched
}

// SortByDisplayName orders contacts by display name, case-insensitively,
// breaking ties by ID.
func SortByDisplayName(list []*Contact) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := strings.ToLower(list[i].DisplayName), strings.ToLower(list[j].DisplayName)
		if a != b {
			return a < b
		}
		return list[i].ID < list[j].ID
	})
}
