package exchange

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/pdxmph/phonebook/internal/contacts"
)

// yamlContact is the YAML shape of a contact. Photos are summarized rather
// than embedded so the file stays readable.
type yamlContact struct {
	ID           string           `yaml:"id,omitempty"`
	DisplayName  string           `yaml:"display_name"`
	Name         contacts.Name    `yaml:"name"`
	PhoneNumbers []contacts.Field `yaml:"phone_numbers,omitempty"`
	Emails       []contacts.Field `yaml:"emails,omitempty"`
	Birthday     string           `yaml:"birthday,omitempty"`
	Photos       []string         `yaml:"photos,omitempty"`
}

// EncodeYAML writes contacts as a YAML sequence.
func EncodeYAML(w io.Writer, list []*contacts.Contact) error {
	out := make([]yamlContact, 0, len(list))
	for _, c := range list {
		yc := yamlContact{
			ID:           c.ID,
			DisplayName:  c.DisplayName,
			Name:         c.Name,
			PhoneNumbers: c.PhoneNumbers,
			Emails:       c.Emails,
			Birthday:     contacts.FormatBirthday(c.Birthday),
		}
		for _, p := range c.Photos {
			yc.Photos = append(yc.Photos, PhotoSummary(p))
		}
		out = append(out, yc)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

// PhotoSummary describes a photo field as "<media type>, <size>".
func PhotoSummary(f contacts.Field) string {
	data, mediaType, err := contacts.DecodePhoto(f)
	if err != nil {
		return "unreadable photo"
	}
	return fmt.Sprintf("%s, %s", mediaType, humanSize(len(data)))
}

func humanSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
