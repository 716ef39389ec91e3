// package formatter renders migration summaries and audit data to various formats (plain text, CSV, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sportsdesk/cmx/internal/ledger"
	"github.com/sportsdesk/cmx/internal/models"
	"github.com/sportsdesk/cmx/internal/shared"
)

// SummaryToText renders one run summary as the terminal report block.
func SummaryToText(summary *models.MigrationSummary) []byte {
	var buf bytes.Buffer

	rule := strings.Repeat("=", 60)
	buf.WriteString(rule + "\n")
	buf.WriteString(fmt.Sprintf("MIGRATION COMPLETED: %s\n", summary.Kind))
	buf.WriteString(rule + "\n")
	buf.WriteString(fmt.Sprintf("Migrated:        %d\n", summary.Success))
	buf.WriteString(fmt.Sprintf("Already present: %d\n", summary.Existing))
	buf.WriteString(fmt.Sprintf("Skipped:         %d\n", summary.Skipped))
	buf.WriteString(fmt.Sprintf("Failed:          %d\n", summary.Errors))
	buf.WriteString(fmt.Sprintf("Processed:       %d\n", summary.Processed()))
	if summary.TotalAvailable > 0 {
		buf.WriteString(fmt.Sprintf("Available:       %d\n", summary.TotalAvailable))
		remaining := summary.TotalAvailable - summary.Processed()
		if remaining > 0 {
			buf.WriteString(fmt.Sprintf("Remaining:       %d\n", remaining))
		}
	}
	buf.WriteString(fmt.Sprintf("Batches:         %d\n", summary.Batches))
	buf.WriteString(fmt.Sprintf("Duration:        %s\n", summary.Duration.Round(time.Millisecond)))

	if len(summary.Failed) > 0 {
		buf.WriteString("\nFailures:\n")
		for _, failure := range summary.Failed {
			buf.WriteString(fmt.Sprintf("  %s [%s]: %s\n", failure.SourceID, failure.Stage, failure.Reason))
		}
	}

	return buf.Bytes()
}

// FailuresToCSV converts ledger failure entries to CSV with columns:
// Kind, SourceID, Stage, Reason, FailedAt.
func FailuresToCSV(entries []models.LedgerEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Kind", "SourceID", "Stage", "Reason", "FailedAt"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, entry := range entries {
		record := []string{
			string(entry.Kind),
			entry.SourceID,
			entry.Stage,
			entry.Reason,
			entry.Timestamp.Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// SummaryToJSON generates a JSON representation of one run summary.
func SummaryToJSON(summary *models.MigrationSummary) ([]byte, error) {
	return shared.MarshalJSON(summary, true)
}

// StatsToText renders per-kind ledger stats as an aligned table.
func StatsToText(stats []ledger.KindStats) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%-12s %10s %10s\n", "KIND", "MIGRATED", "FAILED"))
	for _, s := range stats {
		buf.WriteString(fmt.Sprintf("%-12s %10d %10d\n", s.Kind, s.Successes, s.Failures))
	}
	if len(stats) == 0 {
		buf.WriteString("(ledger is empty)\n")
	}

	return buf.Bytes()
}

// WriteFailuresCSV writes ledger failures for one kind to {base}_failures.csv.
//
// Defaults to the kind as the base filename.
func WriteFailuresCSV(kind models.Kind, entries []models.LedgerEntry, baseFilepath string) (string, error) {
	if baseFilepath == "" {
		baseFilepath = string(kind)
	}

	data, err := FailuresToCSV(entries)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	path := baseFilepath + "_failures.csv"
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return path, nil
}
