package tasks

import (
	"context"
	"time"

	"github.com/sportsdesk/cmx/internal/models"
)

// MigrationStep is one entry in a multi-kind migration plan.
type MigrationStep struct {
	Options Options
}

// DefaultPlan migrates every kind in dependency order: reference data
// first, then contributors, then content.
func DefaultPlan(base Options) []MigrationStep {
	steps := make([]MigrationStep, 0, len(models.Kinds()))
	for _, kind := range models.Kinds() {
		opts := base
		opts.Kind = kind
		steps = append(steps, MigrationStep{Options: opts})
	}
	return steps
}

// RunPlan executes steps sequentially with a short pause between them.
// A failed step records its error and the plan moves on; the snapshot is
// invalidated after a user migration so freshly created contributors
// resolve in the content steps that follow.
func (e *Engine) RunPlan(ctx context.Context, steps []MigrationStep, progress chan<- ProgressUpdate) (map[models.Kind]*models.MigrationSummary, map[models.Kind]error) {
	summaries := make(map[models.Kind]*models.MigrationSummary, len(steps))
	failures := make(map[models.Kind]error)

	for i, step := range steps {
		kind := step.Options.Kind

		summary, err := e.Run(ctx, step.Options, progress)
		if err != nil {
			e.logger.Error("plan step failed", "kind", kind, "error", err)
			failures[kind] = err
		} else {
			summaries[kind] = summary
		}

		if kind == models.KindUser {
			e.snapshots.Invalidate()
		}

		if i < len(steps)-1 {
			select {
			case <-time.After(e.planDelay):
			case <-ctx.Done():
				failures[steps[i+1].Options.Kind] = ctx.Err()
				return summaries, failures
			}
		}
	}

	return summaries, failures
}
