// Package exchange moves contacts in and out of the provider as vCard or
// YAML files.
package exchange

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-vcard"

	"github.com/pdxmph/phonebook/internal/contacts"
)

const vcardDateLayout = "20060102"

// EncodeVCards writes contacts as a stream of vCard 4.0 cards.
func EncodeVCards(w io.Writer, list []*contacts.Contact) error {
	enc := vcard.NewEncoder(w)
	for _, c := range list {
		card, err := ToCard(c)
		if err != nil {
			return fmt.Errorf("contact %q: %w", c.DisplayName, err)
		}
		if err := enc.Encode(card); err != nil {
			return fmt.Errorf("encoding %q: %w", c.DisplayName, err)
		}
	}
	return nil
}

// ToCard converts a contact into a vCard 4.0 card.
func ToCard(c *contacts.Contact) (vcard.Card, error) {
	card := make(vcard.Card)
	card.SetValue(vcard.FieldVersion, "4.0")
	if c.ID != "" {
		card.SetValue(vcard.FieldUID, c.ID)
	}
	card.SetValue(vcard.FieldFormattedName, c.DisplayName)
	card.SetName(&vcard.Name{
		GivenName:  c.Name.GivenName,
		FamilyName: c.Name.FamilyName,
	})

	for _, f := range c.PhoneNumbers {
		card.Add(vcard.FieldTelephone, typedField(f))
	}
	for _, f := range c.Emails {
		card.Add(vcard.FieldEmail, typedField(f))
	}
	for _, f := range c.Photos {
		_, mediaType, err := contacts.DecodePhoto(f)
		if err != nil {
			return nil, err
		}
		card.Add(vcard.FieldPhoto, &vcard.Field{
			Value: "data:" + mediaType + ";base64," + f.Value,
		})
	}
	if c.Birthday != nil {
		card.SetValue(vcard.FieldBirthday, c.Birthday.Format(vcardDateLayout))
	}
	return card, nil
}

func typedField(f contacts.Field) *vcard.Field {
	params := make(vcard.Params)
	if f.Type != "" {
		params.Set(vcard.ParamType, f.Type)
	}
	if f.Pref {
		params.Set(vcard.ParamPreferred, "1")
	}
	return &vcard.Field{Value: f.Value, Params: params}
}

// DecodeVCards reads every card from r. Imported contacts have no ID; the
// original UID is not reused so an import never overwrites a record.
func DecodeVCards(r io.Reader) ([]*contacts.Contact, error) {
	dec := vcard.NewDecoder(r)
	var list []*contacts.Contact
	for {
		card, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding card %d: %w", len(list)+1, err)
		}
		c, err := FromCard(card)
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", len(list)+1, err)
		}
		list = append(list, c)
	}
	return list, nil
}

// FromCard converts a vCard (3.0 or 4.0) into an unsaved contact.
func FromCard(card vcard.Card) (*contacts.Contact, error) {
	c := &contacts.Contact{}
	if n := card.Name(); n != nil {
		c.Name = contacts.Name{GivenName: n.GivenName, FamilyName: n.FamilyName}
	}
	c.DisplayName = strings.TrimSpace(card.Value(vcard.FieldFormattedName))
	if c.DisplayName == "" {
		c.DisplayName = strings.TrimSpace(c.Name.FullName())
	}

	for _, f := range card[vcard.FieldTelephone] {
		c.PhoneNumbers = append(c.PhoneNumbers, fromTyped(f))
	}
	for _, f := range card[vcard.FieldEmail] {
		c.Emails = append(c.Emails, fromTyped(f))
	}
	for _, f := range card[vcard.FieldPhoto] {
		if photo, ok := fromPhoto(f); ok {
			c.Photos = append(c.Photos, photo)
		}
	}

	if bday := card.Value(vcard.FieldBirthday); bday != "" {
		b, err := parseVCardDate(bday)
		if err != nil {
			return nil, err
		}
		c.Birthday = b
	}
	return c, nil
}

func fromTyped(f *vcard.Field) contacts.Field {
	out := contacts.Field{Value: f.Value}
	if f.Params != nil {
		out.Type = strings.ToLower(f.Params.Get(vcard.ParamType))
		out.Pref = f.Params.Get(vcard.ParamPreferred) != ""
		// vCard 3.0 marks preference as a type
		if out.Type == "pref" {
			out.Type = ""
			out.Pref = true
		}
	}
	return out
}

// fromPhoto accepts inline photos: 4.0 data URIs and 3.0 ENCODING=b values.
// Photos referenced by URL are skipped.
func fromPhoto(f *vcard.Field) (contacts.Field, bool) {
	if rest, ok := strings.CutPrefix(f.Value, "data:"); ok {
		_, payload, found := strings.Cut(rest, ";base64,")
		if !found {
			return contacts.Field{}, false
		}
		return contacts.Field{Type: contacts.PhotoBase64, Value: payload}, true
	}
	if f.Params != nil {
		switch strings.ToLower(f.Params.Get("ENCODING")) {
		case "b", "base64":
			return contacts.Field{Type: contacts.PhotoBase64, Value: f.Value}, true
		}
	}
	return contacts.Field{}, false
}

func parseVCardDate(value string) (*time.Time, error) {
	for _, layout := range []string{vcardDateLayout, contacts.BirthdayLayout} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unsupported BDAY %q", value)
}
