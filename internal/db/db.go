// Package db stores contacts in a SQLite database and serves them through
// the contacts.Provider interface.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdxmph/phonebook/internal/contacts"
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

var _ contacts.Provider = (*DB)(nil)

// Open creates a new database connection
func Open(dbPath string) (*DB, error) {
	// Check if DB exists
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found at %s\nRun 'phonebook init' to create it", dbPath)
	}

	// Run any pending migrations
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	conn, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return &DB{conn: conn, now: time.Now}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Save inserts the contact when it has no ID, otherwise updates it. Phone,
// email and photo entries are replaced in the order given.
func (db *DB) Save(ctx context.Context, c *contacts.Contact) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return contacts.NewError(contacts.OpSave, contacts.IOError, fmt.Errorf("starting transaction: %w", err))
	}
	defer tx.Rollback()

	now := db.now().UTC()
	id := c.ID
	created := c.CreatedAt
	birthday := db.birthdayValue(c.Birthday)

	if id == "" {
		id = uuid.NewString()
		created = now
		_, err = tx.ExecContext(ctx, `
			INSERT INTO contacts (id, display_name, given_name, family_name, birthday, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, c.DisplayName, c.Name.GivenName, c.Name.FamilyName, birthday, created, now)
		if err != nil {
			return contacts.NewError(contacts.OpSave, contacts.IOError, fmt.Errorf("inserting contact: %w", err))
		}
	} else {
		result, err := tx.ExecContext(ctx, `
			UPDATE contacts
			SET display_name = ?,
			    given_name = ?,
			    family_name = ?,
			    birthday = ?,
			    updated_at = ?
			WHERE id = ?
		`, c.DisplayName, c.Name.GivenName, c.Name.FamilyName, birthday, now, id)
		if err != nil {
			return contacts.NewError(contacts.OpSave, contacts.IOError, fmt.Errorf("updating contact: %w", err))
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			return contacts.NewError(contacts.OpSave, contacts.UnknownError, fmt.Errorf("%s: %w", id, contacts.ErrNotFound))
		}
	}

	// Replace multi-valued fields wholesale
	if _, err := tx.ExecContext(ctx, `DELETE FROM contact_fields WHERE contact_id = ?`, id); err != nil {
		return contacts.NewError(contacts.OpSave, contacts.IOError, fmt.Errorf("clearing fields: %w", err))
	}
	groups := []struct {
		kind   string
		fields []contacts.Field
	}{
		{kindPhone, c.PhoneNumbers},
		{kindEmail, c.Emails},
		{kindPhoto, c.Photos},
	}
	for _, g := range groups {
		for pos, f := range g.fields {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO contact_fields (contact_id, kind, type, value, pref, position)
				VALUES (?, ?, ?, ?, ?, ?)
			`, id, g.kind, f.Type, f.Value, f.Pref, pos)
			if err != nil {
				return contacts.NewError(contacts.OpSave, contacts.IOError, fmt.Errorf("inserting %s field: %w", g.kind, err))
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return contacts.NewError(contacts.OpSave, contacts.IOError, fmt.Errorf("committing contact: %w", err))
	}

	// Only touch the caller's record once the write is durable
	c.ID = id
	c.CreatedAt = created
	c.UpdatedAt = now
	return nil
}

func (db *DB) birthdayValue(b *time.Time) sql.NullString {
	return NewNullString(contacts.FormatBirthday(b))
}

// Remove permanently deletes a contact and all of its fields
func (db *DB) Remove(ctx context.Context, c *contacts.Contact) error {
	if c.ID == "" {
		return contacts.NewError(contacts.OpRemove, contacts.InvalidArgumentError, fmt.Errorf("contact has no id"))
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return contacts.NewError(contacts.OpRemove, contacts.IOError, fmt.Errorf("starting transaction: %w", err))
	}
	defer tx.Rollback()

	// Delete fields first (foreign key constraint)
	if _, err := tx.ExecContext(ctx, `DELETE FROM contact_fields WHERE contact_id = ?`, c.ID); err != nil {
		return contacts.NewError(contacts.OpRemove, contacts.IOError, fmt.Errorf("deleting fields: %w", err))
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, c.ID)
	if err != nil {
		return contacts.NewError(contacts.OpRemove, contacts.IOError, fmt.Errorf("deleting contact: %w", err))
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return contacts.NewError(contacts.OpRemove, contacts.UnknownError, fmt.Errorf("%s: %w", c.ID, contacts.ErrNotFound))
	}

	if err := tx.Commit(); err != nil {
		return contacts.NewError(contacts.OpRemove, contacts.IOError, fmt.Errorf("committing delete: %w", err))
	}
	return nil
}

// Find returns the contacts matching opts on the named fields, ordered by
// display name
func (db *DB) Find(ctx context.Context, fields []string, opts contacts.FindOptions) ([]*contacts.Contact, error) {
	all, err := db.loadContacts(ctx, "", nil)
	if err != nil {
		return nil, contacts.NewError(contacts.OpFind, contacts.IOError, err)
	}
	return contacts.Filter(all, fields, opts), nil
}

// BirthdaysOn returns the contacts whose birthday falls on the month and day
// of t
func (db *DB) BirthdaysOn(ctx context.Context, t time.Time) ([]*contacts.Contact, error) {
	md := t.Format("01-02")
	all, err := db.loadContacts(ctx, "WHERE substr(birthday, 6, 5) = ?", []any{md})
	if err != nil {
		return nil, contacts.NewError(contacts.OpFind, contacts.IOError, err)
	}
	contacts.SortByDisplayName(all)
	return all, nil
}

// loadContacts reads contacts matching where plus all of their fields
func (db *DB) loadContacts(ctx context.Context, where string, args []any) ([]*contacts.Contact, error) {
	query := `
		SELECT id, display_name, given_name, family_name, birthday, created_at, updated_at
		FROM contacts
	` + where + `
		ORDER BY display_name COLLATE NOCASE, id
	`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying contacts: %w", err)
	}
	defer rows.Close()

	var list []*contacts.Contact
	byID := make(map[string]*contacts.Contact)
	for rows.Next() {
		var r contactRow
		err := rows.Scan(&r.ID, &r.DisplayName, &r.GivenName, &r.FamilyName, &r.Birthday, &r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning contact: %w", err)
		}

		// Clean up the name field - remove newlines and trim whitespace
		r.DisplayName = strings.TrimSpace(strings.ReplaceAll(r.DisplayName, "\n", " "))

		c, err := r.toContact()
		if err != nil {
			return nil, fmt.Errorf("contact %s: %w", r.ID, err)
		}
		list = append(list, c)
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return list, nil
	}

	fieldRows, err := db.conn.QueryContext(ctx, `
		SELECT contact_id, kind, type, value, pref
		FROM contact_fields
		ORDER BY contact_id, kind, position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying fields: %w", err)
	}
	defer fieldRows.Close()

	for fieldRows.Next() {
		var (
			contactID, kind string
			f               contacts.Field
		)
		if err := fieldRows.Scan(&contactID, &kind, &f.Type, &f.Value, &f.Pref); err != nil {
			return nil, fmt.Errorf("scanning field: %w", err)
		}
		if c, ok := byID[contactID]; ok {
			appendField(c, kind, f)
		}
	}

	return list, fieldRows.Err()
}

// Count returns the number of stored contacts
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting contacts: %w", err)
	}
	return n, nil
}
