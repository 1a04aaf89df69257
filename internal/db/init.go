package db

import (
	"fmt"
	"os"
	"path/filepath"
)

// Initialize creates an empty contacts database at path and applies every
// migration. It refuses to touch a file that is already there.
func Initialize(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("database already exists at %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}

	// sqlite creates the file on first connect
	if err := RunMigrations(path); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
