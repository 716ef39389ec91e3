package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/sportsdesk/cmx/internal/ledger"
	"github.com/sportsdesk/cmx/internal/mapper"
	"github.com/sportsdesk/cmx/internal/media"
	"github.com/sportsdesk/cmx/internal/services"
	"github.com/sportsdesk/cmx/internal/shared"
	"github.com/sportsdesk/cmx/internal/snapshot"
	"github.com/sportsdesk/cmx/internal/source"
	"github.com/sportsdesk/cmx/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config    *shared.Config
	dest      services.Destination
	store     source.Store
	ledger    *ledger.Ledger
	media     *media.Cache
	fetcher   *media.Fetcher
	snapshots *snapshot.Loader
	engine    *tasks.Engine
	logger    *log.Logger
	output    io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// SourceDB and LedgerDB may be nil; commands that need them fail with
// [shared.ErrServiceUnavailable] instead of the whole CLI refusing to start.
type RunnerOpts struct {
	Config      *shared.Config
	Destination services.Destination
	SourceDB    *sql.DB
	LedgerDB    *sql.DB
	Engine      *tasks.Engine
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config: opts.Config,
		dest:   opts.Destination,
		logger: opts.Logger,
		output: opts.Output,
	}

	r.fetcher = media.NewFetcher(opts.Config.Media, opts.HTTPClient, opts.Logger)

	if opts.SourceDB != nil {
		r.store = source.NewSQLStore(opts.SourceDB, source.DefaultQueries(), opts.Logger)
	}
	if opts.LedgerDB != nil {
		r.ledger = ledger.New(opts.LedgerDB, opts.Logger)
		if opts.Destination != nil {
			r.media = media.NewCache(opts.LedgerDB, opts.Destination, r.fetcher, opts.Config.Media, opts.Logger)
		}
	}
	if opts.Destination != nil {
		if loader, err := snapshot.NewLoader(opts.Destination, opts.Logger); err == nil {
			r.snapshots = loader
		} else {
			opts.Logger.Warn("reference tables invalid", "error", err)
		}
	}

	r.engine = opts.Engine
	if r.engine == nil && r.store != nil && r.ledger != nil && r.media != nil && r.snapshots != nil {
		r.engine = r.newEngine(opts.Logger)
	}

	return r
}

// newEngine builds a migration engine over the Runner's dependencies with
// the given logger. The TUI rebuilds the engine with a file logger so run
// output does not fight the rendered view.
func (r *Runner) newEngine(logger *log.Logger) *tasks.Engine {
	return tasks.NewEngine(tasks.EngineOpts{
		Store:          r.store,
		Destination:    r.dest,
		Ledger:         r.ledger,
		Snapshots:      r.snapshots,
		Registry:       mapper.NewRegistry(),
		Media:          r.media,
		FallbackAuthor: r.config.Migration.FallbackAuthor,
		EmailDomain:    r.config.Migration.EmailDomain,
		Logger:         logger,
	})
}

// SetLogger replaces the Runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, migrateCommand, ledgerCommand, mediaCommand, mappingsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return err
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
