package exchange

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/pdxmph/phonebook/internal/contacts"
)

// DefaultMaxDistance is the edit distance under which two display names are
// reported as likely duplicates.
const DefaultMaxDistance = 2

// Duplicate pairs an incoming contact with an existing one of similar name.
type Duplicate struct {
	Incoming *contacts.Contact
	Existing *contacts.Contact
	Distance int
}

// FindDuplicates reports, for each incoming contact, the closest existing
// contact whose lower-cased display name is within maxDistance edits.
func FindDuplicates(existing, incoming []*contacts.Contact, maxDistance int) []Duplicate {
	var dups []Duplicate
	for _, in := range incoming {
		name := normalizeName(in.DisplayName)
		if name == "" {
			continue
		}

		best := -1
		var match *contacts.Contact
		for _, ex := range existing {
			d := levenshtein.ComputeDistance(name, normalizeName(ex.DisplayName))
			if d <= maxDistance && (best < 0 || d < best) {
				best = d
				match = ex
			}
		}
		if match != nil {
			dups = append(dups, Duplicate{Incoming: in, Existing: match, Distance: best})
		}
	}
	return dups
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
