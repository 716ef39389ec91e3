package tasks

import (
	"fmt"

	"github.com/sportsdesk/cmx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running migration.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Run phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Run phase enumeration
type Phase int

const (
	Initializing Phase = iota
	CountingTotal
	ProcessingBatches
	Reporting
	Done
)

func (p Phase) String() string {
	switch p {
	case Initializing:
		return "initializing"
	case CountingTotal:
		return "counting_total"
	case ProcessingBatches:
		return "processing_batches"
	case Reporting:
		return "reporting"
	case Done:
		return "done"
	default:
		return ""
	}
}

func initializingUpdate(kind models.Kind) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Initializing,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loading reference snapshot for %s migration...", kind),
	}
}

func countingUpdate(kind models.Kind) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CountingTotal,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Counting %s records in the legacy database...", kind),
	}
}

func countedUpdate(kind models.Kind, total, batches int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CountingTotal,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d %s records (%d batches)", total, kind, batches),
	}
}

func batchUpdate(batch, totalBatches, offset int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ProcessingBatches,
		Step:    batch,
		Total:   totalBatches,
		Message: fmt.Sprintf("[%d/%d] Processing batch (offset %d)...", batch, totalBatches, offset),
	}
}

func batchDoneUpdate(batch, totalBatches int, result batchResult) ProgressUpdate {
	return ProgressUpdate{
		Phase: ProcessingBatches,
		Step:  batch,
		Total: totalBatches,
		Message: fmt.Sprintf("[%d/%d] Batch done: %d migrated, %d existing, %d failed",
			batch, totalBatches, result.success, result.existing, result.errors),
	}
}

func reportingUpdate(summary *models.MigrationSummary) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reporting,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Summarizing %s migration...", summary.Kind),
		Data:    summary,
	}
}

func doneUpdate(summary *models.MigrationSummary) ProgressUpdate {
	return ProgressUpdate{
		Phase: Done,
		Step:  1,
		Total: 1,
		Message: fmt.Sprintf("%s migration completed: %d migrated, %d existing, %d skipped, %d failed",
			summary.Kind, summary.Success, summary.Existing, summary.Skipped, summary.Errors),
		Data: summary,
	}
}
