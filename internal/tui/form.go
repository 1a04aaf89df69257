package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/pdxmph/phonebook/internal/contacts"
)

// Form field indices
const (
	fieldFirst = iota
	fieldLast
	fieldPhone
	fieldEmail
	fieldBirthday
	fieldPhoto
	fieldCount // Total number of fields
)

var fieldLabels = [fieldCount]string{
	"First name:  ",
	"Last name:   ",
	"Phone:       ",
	"Email:       ",
	"Birthday:    ",
	"Photo file:  ",
}

// form is the add/edit form. target is nil in create mode and points at the
// record being edited otherwise.
type form struct {
	inputs []textinput.Model
	focus  int
	target *contacts.Contact
}

func newForm() form {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Width = 40
		inputs[i].CharLimit = 200

		switch i {
		case fieldFirst:
			inputs[i].Placeholder = "Given name"
		case fieldLast:
			inputs[i].Placeholder = "Family name"
		case fieldPhone:
			inputs[i].Placeholder = "Mobile number"
		case fieldEmail:
			inputs[i].Placeholder = "Home email"
		case fieldBirthday:
			inputs[i].Placeholder = "YYYY-MM-DD"
			inputs[i].CharLimit = len(contacts.BirthdayLayout)
		case fieldPhoto:
			inputs[i].Placeholder = "Path to an image (optional)"
			inputs[i].CharLimit = 1024
		}
	}
	return form{inputs: inputs}
}

// reset clears every input and returns the form to create mode.
func (f *form) reset() {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
		f.inputs[i].Blur()
	}
	f.focus = 0
	f.target = nil
	f.inputs[0].Focus()
}

// load pre-fills the form from c and binds submit to editing c.
func (f *form) load(c *contacts.Contact) {
	f.reset()
	f.target = c
	f.inputs[fieldFirst].SetValue(c.Name.GivenName)
	f.inputs[fieldLast].SetValue(c.Name.FamilyName)
	f.inputs[fieldPhone].SetValue(c.FirstPhone())
	f.inputs[fieldEmail].SetValue(c.FirstEmail())
	f.inputs[fieldBirthday].SetValue(contacts.FormatBirthday(c.Birthday))
}

func (f form) editing() bool {
	return f.target != nil
}

func (f form) value(field int) string {
	return f.inputs[field].Value()
}

func (f form) onLastField() bool {
	return f.focus == fieldCount-1
}

func (f *form) next() {
	if f.focus < fieldCount-1 {
		f.inputs[f.focus].Blur()
		f.focus++
		f.inputs[f.focus].Focus()
	}
}

func (f *form) prev() {
	if f.focus > 0 {
		f.inputs[f.focus].Blur()
		f.focus--
		f.inputs[f.focus].Focus()
	}
}

// parsed holds the validated form values that are not plain strings.
type parsed struct {
	birthday *time.Time
	photos   []contacts.Field
	newPhoto bool
}

// parse validates the birthday and photo inputs. Errors carry the code
// shown in the alert.
func (f form) parse() (p parsed, err error) {
	p.birthday, err = contacts.ParseBirthday(f.value(fieldBirthday))
	if err != nil {
		return p, contacts.NewError(contacts.OpSave, contacts.InvalidArgumentError, err)
	}

	p.photos = []contacts.Field{}
	if path := strings.TrimSpace(f.value(fieldPhoto)); path != "" {
		photo, err := contacts.EncodePhotoFile(path)
		if err != nil {
			return p, err
		}
		p.photos = append(p.photos, photo)
		p.newPhoto = true
	}
	return p, nil
}

// build returns an unsaved contact from the form in create mode.
func (f form) build() (*contacts.Contact, error) {
	p, err := f.parse()
	if err != nil {
		return nil, err
	}

	first, last := f.value(fieldFirst), f.value(fieldLast)
	return contacts.Create(contacts.Contact{
		DisplayName: first + " " + last,
		Name:        contacts.Name{GivenName: first, FamilyName: last},
		PhoneNumbers: []contacts.Field{
			{Type: contacts.PhoneMobile, Value: f.value(fieldPhone), Pref: true},
		},
		Emails: []contacts.Field{
			{Type: contacts.EmailHome, Value: f.value(fieldEmail)},
		},
		Photos:   p.photos,
		Birthday: p.birthday,
	}), nil
}

// apply writes the form into c in place. c is left untouched when the form
// does not validate. Only the first phone and email are edited; further
// entries are kept as they are.
func (f form) apply(c *contacts.Contact) error {
	p, err := f.parse()
	if err != nil {
		return err
	}

	first, last := f.value(fieldFirst), f.value(fieldLast)
	c.Name.GivenName = first
	c.Name.FamilyName = last
	c.DisplayName = first + " " + last

	phone := f.value(fieldPhone)
	if len(c.PhoneNumbers) > 0 {
		c.PhoneNumbers[0].Value = phone
	} else if phone != "" {
		c.PhoneNumbers = []contacts.Field{{Type: contacts.PhoneMobile, Value: phone, Pref: true}}
	}

	email := f.value(fieldEmail)
	if len(c.Emails) > 0 {
		c.Emails[0].Value = email
	} else if email != "" {
		c.Emails = []contacts.Field{{Type: contacts.EmailHome, Value: email}}
	}

	c.Birthday = p.birthday
	if p.newPhoto {
		c.Photos = p.photos
	}
	return nil
}

// render renders the form box
func (f form) render(saving bool, spin string) string {
	var lines []string
	if f.editing() {
		lines = append(lines, titleStyle.Render(fmt.Sprintf("Edit Contact: %s", f.target.DisplayName)))
	} else {
		lines = append(lines, titleStyle.Render("New Contact"))
	}
	lines = append(lines, strings.Repeat("─", 56))
	lines = append(lines, "")

	for i, label := range fieldLabels {
		var fieldView string
		if i == f.focus {
			fieldView = label + f.inputs[i].View()
		} else {
			value := f.inputs[i].Value()
			if value == "" {
				value = labelStyle.Render(f.inputs[i].Placeholder)
			}
			fieldView = label + value
		}
		lines = append(lines, fieldView)
	}

	lines = append(lines, "")
	if saving {
		lines = append(lines, spin+" Saving...")
	} else if f.editing() && len(f.target.Photos) > 0 {
		lines = append(lines, labelStyle.Render("Leave the photo empty to keep the current one"))
	} else {
		lines = append(lines, "")
	}

	return borderStyle.
		Padding(1).
		Width(60).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
