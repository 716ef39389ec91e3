// Package ledger persists migration outcomes for idempotency and auditing.
//
// One SQLite database records every attempted record: successes keyed by
// (kind, source id) with the assigned destination id, failures as an
// append-only log with the failing stage and reason. The success table's
// primary key is the at-most-once guard: the first writer wins and any
// concurrent duplicate insert surfaces as [shared.ErrDuplicate].
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/sportsdesk/cmx/internal/models"
	"github.com/sportsdesk/cmx/internal/shared"
)

// Ledger is the durable outcome store shared by all record-level workers.
type Ledger struct {
	db     *sql.DB
	logger *log.Logger
}

// KindStats aggregates ledger contents for one kind.
type KindStats struct {
	Kind      models.Kind `json:"kind"`
	Successes int         `json:"successes"`
	Failures  int         `json:"failures"`
}

// New creates a Ledger over an open database. Callers run
// [shared.RunMigrations] on the connection before first use.
func New(db *sql.DB, logger *log.Logger) *Ledger {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Ledger{db: db, logger: logger}
}

// QueryExisting returns the subset of ids that already have a success entry
// for the kind. The orchestrator filters these out before mapping.
func (l *Ledger) QueryExisting(ctx context.Context, kind models.Kind, ids []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(ids) == 0 {
		return existing, nil
	}

	placeholders := strings.TrimRight(strings.Repeat("?, ", len(ids)), ", ")
	query := fmt.Sprintf(
		`SELECT source_id FROM migration_successes WHERE kind = ? AND source_id IN (%s)`,
		placeholders,
	)

	args := make([]any, 0, len(ids)+1)
	args = append(args, string(kind))
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing %s entries: %w", kind, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		existing[id] = true
	}
	return existing, rows.Err()
}

// RecordSuccess inserts a success entry. A second success for the same
// (kind, source id) violates the primary key and is reported as
// [shared.ErrDuplicate]; the original entry is left untouched.
func (l *Ledger) RecordSuccess(ctx context.Context, entry models.LedgerEntry) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO migration_successes (kind, source_id, destination_id, title, slug, migrated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(entry.Kind), entry.SourceID, entry.DestinationID, entry.Title, entry.Slug, timestamp(entry),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s %s already recorded", shared.ErrDuplicate, entry.Kind, entry.SourceID)
		}
		return fmt.Errorf("%w: success %s %s: %v", shared.ErrLedgerWrite, entry.Kind, entry.SourceID, err)
	}

	l.logger.Info("recorded success", "kind", entry.Kind, "sourceId", entry.SourceID, "destinationId", entry.DestinationID)
	return nil
}

// RecordFailure appends a failure entry with the stage and reason preserved
// for operator triage. Failures never block a later retry of the same id.
func (l *Ledger) RecordFailure(ctx context.Context, entry models.LedgerEntry) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO migration_failures (kind, source_id, stage, reason, failed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		string(entry.Kind), entry.SourceID, entry.Stage, entry.Reason, timestamp(entry),
	)
	if err != nil {
		return fmt.Errorf("%w: failure %s %s: %v", shared.ErrLedgerWrite, entry.Kind, entry.SourceID, err)
	}

	l.logger.Warn("recorded failure", "kind", entry.Kind, "sourceId", entry.SourceID, "stage", entry.Stage, "reason", entry.Reason)
	return nil
}

// SuccessCount returns how many records of the kind have migrated. Seeds
// the user email counter on resumed runs.
func (l *Ledger) SuccessCount(ctx context.Context, kind models.Kind) (int, error) {
	var count int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM migration_successes WHERE kind = ?`, string(kind),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count successes for %s: %w", kind, err)
	}
	return count, nil
}

// Failures returns the recorded failures for the kind, newest first.
func (l *Ledger) Failures(ctx context.Context, kind models.Kind) ([]models.LedgerEntry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT source_id, stage, reason, failed_at
		 FROM migration_failures WHERE kind = ? ORDER BY id DESC`, string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query failures for %s: %w", kind, err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		entry := models.LedgerEntry{Kind: kind, Outcome: models.OutcomeFailure}
		if err := rows.Scan(&entry.SourceID, &entry.Stage, &entry.Reason, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan failure row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Stats summarizes success/failure counts per kind.
func (l *Ledger) Stats(ctx context.Context) ([]KindStats, error) {
	var stats []KindStats
	for _, kind := range models.Kinds() {
		successes, err := l.SuccessCount(ctx, kind)
		if err != nil {
			return nil, err
		}

		var failures int
		err = l.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM migration_failures WHERE kind = ?`, string(kind),
		).Scan(&failures)
		if err != nil {
			return nil, fmt.Errorf("failed to count failures for %s: %w", kind, err)
		}

		if successes > 0 || failures > 0 {
			stats = append(stats, KindStats{Kind: kind, Successes: successes, Failures: failures})
		}
	}
	return stats, nil
}

func timestamp(entry models.LedgerEntry) time.Time {
	if entry.Timestamp.IsZero() {
		return time.Now().UTC()
	}
	return entry.Timestamp
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return strings.Contains(err.Error(), "UNIQUE constraint")
}
