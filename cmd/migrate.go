package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/sportsdesk/cmx/internal/formatter"
	"github.com/sportsdesk/cmx/internal/models"
	"github.com/sportsdesk/cmx/internal/shared"
	"github.com/sportsdesk/cmx/internal/source"
	"github.com/sportsdesk/cmx/internal/tasks"
	"github.com/sportsdesk/cmx/internal/ui"
)

// optionsFromFlags builds run options from the migrate flag set.
func (r *Runner) optionsFromFlags(cmd *cli.Command) (tasks.Options, error) {
	kind, err := models.ParseKind(cmd.String("kind"))
	if err != nil {
		return tasks.Options{}, err
	}

	variant, err := source.ParseVariant(cmd.String("variant"))
	if err != nil {
		return tasks.Options{}, err
	}

	return tasks.Options{
		Kind:          kind,
		Variant:       variant,
		BatchSize:     cmd.Int("batch-size"),
		MaxBatches:    cmd.Int("max-batches"),
		StartOffset:   cmd.Int("offset"),
		BatchWorkers:  cmd.Int("batch-workers"),
		RecordWorkers: cmd.Int("record-workers"),
	}, nil
}

// MigrateRun migrates one content kind from the legacy database.
func (r *Runner) MigrateRun(ctx context.Context, cmd *cli.Command) error {
	if r.engine == nil {
		return fmt.Errorf("%w: migration engine not initialized, check source and ledger config", shared.ErrServiceUnavailable)
	}

	opts, err := r.optionsFromFlags(cmd)
	if err != nil {
		return err
	}
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	r.logger.Info("starting migration", "kind", opts.Kind, "variant", opts.Variant)
	r.writePlain("Starting migration...\n")
	r.writePlain("Kind: %s\n", opts.Kind)
	r.writePlain("Variant: %s\n\n", opts.Variant)

	// Create progress channel and goroutine to handle updates
	progressCh := make(chan tasks.ProgressUpdate, 50)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for update := range progressCh {
			switch update.Phase {
			case tasks.CountingTotal:
				r.writePlain("🔢 %s\n", update.Message)
			case tasks.ProcessingBatches:
				r.writePlain("   %s\n", update.Message)
			case tasks.Reporting:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	summary, err := r.engine.Run(ctx, opts, progressCh)
	close(progressCh)
	<-drained

	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(summary, pretty)
	}

	return r.writePlain("\n%s", formatter.SummaryToText(summary))
}

// MigratePlan migrates every kind in dependency order: reference data
// first, then content that points at it.
func (r *Runner) MigratePlan(ctx context.Context, cmd *cli.Command) error {
	if r.engine == nil {
		return fmt.Errorf("%w: migration engine not initialized, check source and ledger config", shared.ErrServiceUnavailable)
	}

	base := tasks.Options{
		Variant:       source.VariantAll,
		BatchSize:     cmd.Int("batch-size"),
		BatchWorkers:  cmd.Int("batch-workers"),
		RecordWorkers: cmd.Int("record-workers"),
	}
	useJSON := cmd.Bool("json")

	steps := tasks.DefaultPlan(base)
	r.logger.Info("starting migration plan", "steps", len(steps))
	r.writePlain("Starting full migration plan (%d kinds)...\n\n", len(steps))

	progressCh := make(chan tasks.ProgressUpdate, 50)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for update := range progressCh {
			switch update.Phase {
			case tasks.Initializing:
				r.writePlain("\n▶ %s\n", update.Message)
			case tasks.ProcessingBatches:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	summaries, failures := r.engine.RunPlan(ctx, steps, progressCh)
	close(progressCh)
	<-drained

	if useJSON {
		return r.writeJSON(summaries, true)
	}

	r.writePlain("\n")
	r.writePlainHeader("Migration Plan Complete")
	for _, step := range steps {
		kind := step.Options.Kind
		if err, ok := failures[kind]; ok {
			r.writePlain("%-12s failed: %v\n", kind, err)
			continue
		}
		if summary, ok := summaries[kind]; ok {
			r.writePlain("%-12s migrated %d, existing %d, skipped %d, failed %d\n",
				kind, summary.Success, summary.Existing, summary.Skipped, summary.Errors)
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("%w: %d of %d plan steps failed", shared.ErrAPIRequest, len(failures), len(steps))
	}
	return nil
}

// MigrateUI launches the interactive terminal UI for a single-kind run.
func (r *Runner) MigrateUI(ctx context.Context, cmd *cli.Command) error {
	if r.engine == nil {
		return fmt.Errorf("%w: migration engine not initialized, check source and ledger config", shared.ErrServiceUnavailable)
	}

	opts, err := r.optionsFromFlags(cmd)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/cmx-ui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, r.newEngine(fileLogger), opts)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
