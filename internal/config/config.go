// Package config loads phonebook settings from defaults, a TOML file and
// PHONEBOOK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. PHONEBOOK_DATABASE_PATH.
const EnvPrefix = "PHONEBOOK"

// Config holds the application configuration
type Config struct {
	Database DatabaseConfig `toml:"database" mapstructure:"database"`
	Provider ProviderConfig `toml:"provider" mapstructure:"provider"`
	UI       UIConfig       `toml:"ui" mapstructure:"ui"`
	Log      LogConfig      `toml:"log" mapstructure:"log"`
	Tasks    TasksConfig    `toml:"tasks" mapstructure:"tasks"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string `toml:"path" mapstructure:"path"`
}

// ProviderConfig holds settings for calls into the contacts provider
type ProviderConfig struct {
	Timeout time.Duration `toml:"timeout" mapstructure:"timeout"`
}

// UIConfig holds screen settings
type UIConfig struct {
	// SwipeThreshold is the leftward drag, in units, past which a row's
	// actions are revealed on release.
	SwipeThreshold int `toml:"swipe_threshold" mapstructure:"swipe_threshold"`
	// CellUnits is how many units one terminal cell of drag is worth.
	CellUnits int `toml:"cell_units" mapstructure:"cell_units"`
}

// LogConfig holds logging settings
type LogConfig struct {
	File string `toml:"file" mapstructure:"file"`
}

// TasksConfig selects the task backend used for birthday reminders
type TasksConfig struct {
	Backend string `toml:"backend" mapstructure:"backend"`
}

// Default returns the default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(homeDir, ".config", "phonebook", "contacts.db"),
		},
		Provider: ProviderConfig{
			Timeout: 10 * time.Second,
		},
		UI: UIConfig{
			SwipeThreshold: 100,
			CellUnits:      10,
		},
		Log: LogConfig{
			File: filepath.Join(homeDir, ".local", "state", "phonebook", "phonebook.log"),
		},
	}
}

// DefaultPath returns the standard config file location
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}
	return filepath.Join(homeDir, ".config", "phonebook", "config.toml"), nil
}

// Load loads configuration from the standard location
func Load() (*Config, error) {
	configPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom loads configuration from a specific path. A missing file yields
// the defaults; environment variables override both.
func LoadFrom(configPath string) (*Config, error) {
	def := Default()

	v := viper.New()
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("provider.timeout", def.Provider.Timeout)
	v.SetDefault("ui.swipe_threshold", def.UI.SwipeThreshold)
	v.SetDefault("ui.cell_units", def.UI.CellUnits)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("tasks.backend", def.Tasks.Backend)

	v.SetConfigType("toml")
	v.SetConfigFile(configPath)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Check if config file exists
	if _, err := os.Stat(configPath); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	// Expand home directory in paths
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Log.File = expandPath(cfg.Log.File)

	return cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("config: database.path cannot be empty")
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("config: provider.timeout must be positive, got %v", c.Provider.Timeout)
	}
	if c.UI.SwipeThreshold <= 0 {
		return fmt.Errorf("config: ui.swipe_threshold must be positive, got %d", c.UI.SwipeThreshold)
	}
	if c.UI.CellUnits <= 0 {
		return fmt.Errorf("config: ui.cell_units must be positive, got %d", c.UI.CellUnits)
	}
	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// SaveTo saves the configuration to a specific path
func (c *Config) SaveTo(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	return nil
}
