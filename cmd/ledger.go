package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/sportsdesk/cmx/internal/formatter"
	"github.com/sportsdesk/cmx/internal/models"
	"github.com/sportsdesk/cmx/internal/shared"
)

// LedgerStats prints per-kind success and failure counts.
func (r *Runner) LedgerStats(ctx context.Context, cmd *cli.Command) error {
	if r.ledger == nil {
		return fmt.Errorf("%w: ledger not initialized, run 'cmx setup database' first", shared.ErrServiceUnavailable)
	}

	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	stats, err := r.ledger.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read ledger stats: %w", err)
	}

	if useJSON {
		return r.writeJSON(stats, pretty)
	}

	return r.writePlain("%s", formatter.StatsToText(stats))
}

// LedgerFailures lists recorded failures for one kind, optionally as CSV.
func (r *Runner) LedgerFailures(ctx context.Context, cmd *cli.Command) error {
	if r.ledger == nil {
		return fmt.Errorf("%w: ledger not initialized, run 'cmx setup database' first", shared.ErrServiceUnavailable)
	}

	kind, err := models.ParseKind(cmd.String("kind"))
	if err != nil {
		return err
	}

	entries, err := r.ledger.Failures(ctx, kind)
	if err != nil {
		return fmt.Errorf("failed to read failures: %w", err)
	}

	if cmd.Bool("csv") {
		path, err := formatter.WriteFailuresCSV(kind, entries, cmd.String("output"))
		if err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
		r.logger.Info("failures exported", "kind", kind, "count", len(entries), "path", path)
		r.writePlain("✓ %d failures written to %s\n", len(entries), path)
		return nil
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	if len(entries) == 0 {
		r.writePlain("No recorded failures for %s\n", kind)
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Failures: %s (%d)", kind, len(entries)))
	for _, entry := range entries {
		r.writePlain("  %s [%s]: %s\n", entry.SourceID, entry.Stage, entry.Reason)
	}
	return nil
}
