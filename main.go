package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/pdxmph/phonebook/internal/config"
	"github.com/pdxmph/phonebook/internal/contacts"
	"github.com/pdxmph/phonebook/internal/db"
	"github.com/pdxmph/phonebook/internal/exchange"
	"github.com/pdxmph/phonebook/internal/tasks"
	_ "github.com/pdxmph/phonebook/internal/tasks/taskwarrior"
	"github.com/pdxmph/phonebook/internal/tui"
)

var (
	version = "dev"
	commit  = "unknown"
)

// Globals are the flags shared by every command.
type Globals struct {
	Config string `help:"Config file path." type:"path"`
	DB     string `name:"db" help:"Database path, overrides the config." type:"path"`

	Out io.Writer `kong:"-"`
}

// CLI is the top-level command structure for phonebook.
type CLI struct {
	Globals

	Version  kong.VersionFlag `help:"Show version." short:"V"`
	TUI      TUICmd           `cmd:"" name:"tui" default:"withargs" help:"Open the contact screen (default)."`
	Init     InitCmd          `cmd:"" help:"Create the contacts database."`
	Fixtures FixturesCmd      `cmd:"" help:"Create a database filled with sample contacts."`
	List     ListCmd          `cmd:"" help:"Print every contact."`
	Export   ExportCmd        `cmd:"" help:"Export contacts as vCard or YAML."`
	Import   ImportCmd        `cmd:"" help:"Import contacts from a vCard file."`
	Remind   RemindCmd        `cmd:"" help:"Create task reminders for today's birthdays."`
}

func (g *Globals) stdout() io.Writer {
	if g.Out != nil {
		return g.Out
	}
	return os.Stdout
}

// loadConfig reads the config file and applies flag overrides.
func (g *Globals) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.Config != "" {
		cfg, err = config.LoadFrom(g.Config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if g.DB != "" {
		cfg.Database.Path = g.DB
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openProvider loads the config and opens the SQLite provider.
func (g *Globals) openProvider() (*config.Config, *db.DB, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, database, nil
}

// TUICmd opens the contact screen.
type TUICmd struct {
	Memory bool `help:"Use an in-memory store seeded with sample contacts."`
}

// Run starts the program.
func (c *TUICmd) Run(g *Globals) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("tui: requires a terminal (TTY); try 'phonebook list'")
	}

	cfg, err := g.loadConfig()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	// Log to a file; the screen owns stdout
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0755); err != nil {
		return fmt.Errorf("tui: creating log directory: %w", err)
	}
	logFile, err := tea.LogToFile(cfg.Log.File, "phonebook")
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	defer logFile.Close()

	var provider contacts.Provider
	if c.Memory {
		provider = contacts.NewMemoryProvider(db.Fixtures(time.Now())...)
		log.Printf("using in-memory store")
	} else {
		database, err := db.Open(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("tui: %w", err)
		}
		defer database.Close()
		provider = database
		log.Printf("opened %s", cfg.Database.Path)
	}

	model := tui.New(provider, tui.Options{
		Timeout:        cfg.Provider.Timeout,
		SwipeThreshold: cfg.UI.SwipeThreshold,
		CellUnits:      cfg.UI.CellUnits,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// InitCmd creates the database and writes a config file if none exists.
type InitCmd struct{}

// Run creates the database.
func (c *InitCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := db.Initialize(cfg.Database.Path); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	fmt.Fprintf(g.stdout(), "Created database at %s\n", cfg.Database.Path)

	configPath := g.Config
	if configPath == "" {
		if configPath, err = config.DefaultPath(); err != nil {
			return fmt.Errorf("init: %w", err)
		}
	}
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := cfg.SaveTo(configPath); err != nil {
			return fmt.Errorf("init: %w", err)
		}
		fmt.Fprintf(g.stdout(), "Wrote config to %s\n", configPath)
	}
	return nil
}

// FixturesCmd creates a sample database.
type FixturesCmd struct {
	Path string `arg:"" help:"Where to create the database." type:"path"`
}

// Run creates the fixtures database.
func (c *FixturesCmd) Run(g *Globals) error {
	if err := db.CreateFixturesDatabase(c.Path); err != nil {
		return fmt.Errorf("fixtures: %w", err)
	}
	fmt.Fprintf(g.stdout(), "Created fixtures database at %s\n", c.Path)
	return nil
}

// ListCmd prints contacts, as a table on a terminal and tab separated
// otherwise.
type ListCmd struct {
	Filter string `arg:"" optional:"" help:"Only contacts matching this text."`
}

// Run prints the contacts.
func (c *ListCmd) Run(g *Globals) error {
	cfg, database, err := g.openProvider()
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	defer database.Close()

	ctx, cancel := commandContext(cfg)
	defer cancel()

	list, err := database.Find(ctx, contacts.AllFields, contacts.FindOptions{Filter: c.Filter, Multiple: true})
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}

	rows := make([][]string, len(list))
	for i, ct := range list {
		rows[i] = []string{ct.DisplayName, ct.FirstPhone(), ct.FirstEmail(), contacts.FormatBirthday(ct.Birthday)}
	}

	w := g.stdout()
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
			Headers("NAME", "PHONE", "EMAIL", "BIRTHDAY").
			Rows(rows...)
		fmt.Fprintln(w, t.Render())
		return nil
	}

	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r[0], r[1], r[2], r[3])
	}
	return nil
}

// ExportCmd writes every contact in one format.
type ExportCmd struct {
	Format string `help:"Output format." enum:"vcard,yaml" default:"vcard"`
	Output string `short:"o" help:"Write to this file instead of stdout." type:"path"`
}

// Run exports the contacts.
func (c *ExportCmd) Run(g *Globals) error {
	cfg, database, err := g.openProvider()
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer database.Close()

	ctx, cancel := commandContext(cfg)
	defer cancel()

	list, err := database.Find(ctx, contacts.AllFields, contacts.FindOptions{Multiple: true})
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	w := g.stdout()
	if c.Output != "" {
		f, err := os.Create(c.Output)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch c.Format {
	case "yaml":
		err = exchange.EncodeYAML(w, list)
	default:
		err = exchange.EncodeVCards(w, list)
	}
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if c.Output != "" {
		fmt.Fprintf(g.stdout(), "Exported %d contacts to %s\n", len(list), c.Output)
	}
	return nil
}

// ImportCmd adds contacts from a vCard file.
type ImportCmd struct {
	File           string `arg:"" help:"vCard file to import." type:"existingfile"`
	DryRun         bool   `help:"Report what would be imported without saving."`
	SkipDuplicates bool   `help:"Skip contacts that look like an existing one."`
	MaxDistance    int    `help:"Name edit distance treated as a duplicate." default:"2"`
}

// Run imports the file.
func (c *ImportCmd) Run(g *Globals) error {
	f, err := os.Open(c.File)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	defer f.Close()

	incoming, err := exchange.DecodeVCards(f)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	cfg, database, err := g.openProvider()
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	defer database.Close()

	ctx, cancel := commandContext(cfg)
	defer cancel()

	existing, err := database.Find(ctx, contacts.AllFields, contacts.FindOptions{Multiple: true})
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	w := g.stdout()
	skip := make(map[*contacts.Contact]bool)
	for _, d := range exchange.FindDuplicates(existing, incoming, c.MaxDistance) {
		fmt.Fprintf(w, "warning: %q looks like existing contact %q (distance %d)\n",
			d.Incoming.DisplayName, d.Existing.DisplayName, d.Distance)
		if c.SkipDuplicates {
			skip[d.Incoming] = true
		}
	}

	imported := 0
	for _, ct := range incoming {
		if skip[ct] {
			continue
		}
		if !c.DryRun {
			if err := database.Save(ctx, ct); err != nil {
				return fmt.Errorf("import: saving %q: %w", ct.DisplayName, err)
			}
		}
		imported++
	}

	if c.DryRun {
		fmt.Fprintf(w, "Would import %d of %d contacts\n", imported, len(incoming))
		return nil
	}

	total, err := database.Count(ctx)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	fmt.Fprintf(w, "Imported %d of %d contacts (%d stored)\n", imported, len(incoming), total)
	return nil
}

// RemindCmd creates birthday reminders in a task manager.
type RemindCmd struct {
	Backend string `help:"Task backend (taskwarrior, noop). Defaults to the config, then the first available."`
	DryRun  bool   `help:"Print the reminders without creating them."`
}

// Run creates the reminders.
func (c *RemindCmd) Run(g *Globals) error {
	cfg, database, err := g.openProvider()
	if err != nil {
		return fmt.Errorf("remind: %w", err)
	}
	defer database.Close()

	name := c.Backend
	if name == "" {
		name = cfg.Tasks.Backend
	}
	manager, err := tasks.NewManager(name)
	if err != nil {
		return fmt.Errorf("remind: %w (have: %v)", err, tasks.ListBackends())
	}

	ctx, cancel := commandContext(cfg)
	defer cancel()

	created, err := manager.RemindBirthdays(ctx, database, time.Now(), c.DryRun)
	w := g.stdout()
	for _, text := range created {
		fmt.Fprintln(w, text)
	}
	if err != nil {
		return fmt.Errorf("remind: %w", err)
	}
	if len(created) == 0 {
		fmt.Fprintln(w, "No new birthday reminders")
	}
	return nil
}

// commandContext bounds a CLI command by the provider timeout and Ctrl-C.
func commandContext(cfg *config.Config) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	ctx, cancel := context.WithTimeout(ctx, cfg.Provider.Timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("phonebook"),
		kong.Description("Keep your contacts in a terminal phonebook."),
		kong.Vars{"version": version + " " + commit},
	)
	if err := ctx.Run(&cli.Globals); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
