// Package runtime provides application runtime context for Carebook.
package runtime

import (
	"os"

	"github.com/jmhodges/clock"

	"carebook/internal/book"
	"carebook/internal/config"
	"carebook/internal/errors"
	"carebook/internal/notify"
	"carebook/internal/output"
	"carebook/internal/plan"
	"carebook/internal/storage"
)

// Context holds the application runtime context.
type Context struct {
	DB        *storage.DB
	Formatter *output.Formatter
	Clock     clock.Clock

	// Repositories
	SnapshotRepo *storage.SnapshotRepo
	AlertRepo    *storage.AlertRepo
	ChannelRepo  *storage.ChannelRepo

	// Components
	Book       *book.Book
	Port       *notify.QueuePort
	Dispatcher *notify.Dispatcher
	Planner    *plan.Planner

	// Debug mode
	Debug bool
}

// Options configures the runtime context.
type Options struct {
	DBPath    string
	InMemory  bool
	Format    output.Format
	ColorMode output.ColorMode
	Debug     bool
}

// DefaultOptions returns default runtime options.
func DefaultOptions() Options {
	return Options{
		DBPath:    storage.DefaultPath(),
		InMemory:  false,
		Format:    output.FormatCLI,
		ColorMode: output.ColorAuto,
	}
}

// New creates a new runtime context.
func New(opts Options) (*Context, error) {
	// Check for environment variable override
	if envPath := os.Getenv("CAREBOOK_DATABASE"); envPath != "" {
		if envPath == ":memory:" {
			opts.InMemory = true
		} else {
			opts.DBPath = envPath
		}
	}

	db, err := storage.Open(storage.Options{
		Path:     opts.DBPath,
		InMemory: opts.InMemory,
	})
	if err != nil {
		return nil, err
	}

	snapshotRepo := storage.NewSnapshotRepo(db)
	alertRepo := storage.NewAlertRepo(db)
	channelRepo := storage.NewChannelRepo(db)

	clk := clock.New()
	port := notify.NewQueuePort(alertRepo, channelRepo)
	dispatcher := notify.NewDispatcher(channelRepo)
	planner := plan.NewPlanner(plan.Options{
		ReminderLead:       config.Global.Plan.ReminderLead,
		SuppressPastAtTime: config.Global.Plan.SuppressPastAtTime,
	})

	bk := book.New(snapshotRepo, alertRepo, planner, port, clk)
	if err := bk.Load(); err != nil {
		db.Close()
		return nil, err
	}

	formatter := output.NewFormatter()
	formatter.Format = opts.Format
	formatter.ColorMode = opts.ColorMode

	return &Context{
		DB:           db,
		Formatter:    formatter,
		Clock:        clk,
		SnapshotRepo: snapshotRepo,
		AlertRepo:    alertRepo,
		ChannelRepo:  channelRepo,
		Book:         bk,
		Port:         port,
		Dispatcher:   dispatcher,
		Planner:      planner,
		Debug:        opts.Debug,
	}, nil
}

// Close closes the runtime context.
func (c *Context) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// CLIFormatter returns a CLI formatter.
func (c *Context) CLIFormatter() *output.CLIFormatter {
	return output.NewCLIFormatter(c.Formatter)
}

// JSONFormatter returns a JSON formatter.
func (c *Context) JSONFormatter() *output.JSONFormatter {
	return output.NewJSONFormatter(c.Formatter)
}

// IsJSON returns true if output format is JSON.
func (c *Context) IsJSON() bool {
	return c.Formatter.Format == output.FormatJSON
}

// GetSuggestion extracts a user suggestion from an error, if present.
func GetSuggestion(err error) string {
	if ue, ok := errors.AsUserError(err); ok {
		return ue.Suggestion
	}
	return ""
}

// FormatError renders an error with its suggestion for terminal output.
func FormatError(err error) string {
	if ue, ok := errors.AsUserError(err); ok && ue.Suggestion != "" {
		return ue.Error() + "\n  hint: " + ue.Suggestion
	}
	return err.Error()
}
