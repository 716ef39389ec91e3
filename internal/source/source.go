// Package source reads pages of legacy records from the relational source.
//
// The orchestrator never issues free-form SQL; it asks for a named query
// variant (test, batch, all, custom) plus an offset and limit. Paginated
// variants declare @offset/@limit named parameters so the same presets run
// against SQL Server in production and SQLite in fixtures.
package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/sportsdesk/cmx/internal/models"
	"github.com/sportsdesk/cmx/internal/shared"
)

// Variant names one of the configured query presets for a kind.
type Variant string

const (
	VariantTest   Variant = "test"
	VariantBatch  Variant = "batch"
	VariantAll    Variant = "all"
	VariantCustom Variant = "custom"
)

// ParseVariant converts a CLI string into a Variant.
func ParseVariant(s string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case VariantTest:
		return VariantTest, nil
	case VariantBatch:
		return VariantBatch, nil
	case VariantAll:
		return VariantAll, nil
	case VariantCustom:
		return VariantCustom, nil
	default:
		return "", fmt.Errorf("%w: unknown query variant %q", shared.ErrInvalidFlag, s)
	}
}

// Paged reports whether the variant accepts offset/limit parameters.
// Test and custom presets are fixed-shape debugging queries.
func (v Variant) Paged() bool {
	return v == VariantBatch || v == VariantAll
}

// QuerySet holds the SQL presets for one content kind.
type QuerySet struct {
	Count  string
	Test   string
	Batch  string
	All    string
	Custom string
}

func (qs QuerySet) forVariant(v Variant) string {
	switch v {
	case VariantTest:
		return qs.Test
	case VariantBatch:
		return qs.Batch
	case VariantAll:
		return qs.All
	case VariantCustom:
		return qs.Custom
	default:
		return ""
	}
}

// Queries maps each content kind to its presets.
type Queries map[models.Kind]QuerySet

// Store reads pages of source records and total counts.
type Store interface {
	// Count returns the total number of source records for the kind,
	// used for batch planning and progress reporting.
	Count(ctx context.Context, kind models.Kind) (int, error)

	// ReadPage reads one page of records for the kind using the named
	// query variant. Offset and limit are ignored for unpaged variants.
	ReadPage(ctx context.Context, kind models.Kind, variant Variant, offset, limit int) ([]models.SourceRecord, error)
}

// SQLStore implements [Store] over database/sql.
type SQLStore struct {
	db      *sql.DB
	queries Queries
	logger  *log.Logger
}

// NewSQLStore creates a store with the given connection and query presets.
// Pass [DefaultQueries] for the legacy CMS schema.
func NewSQLStore(db *sql.DB, queries Queries, logger *log.Logger) *SQLStore {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SQLStore{db: db, queries: queries, logger: logger}
}

// Count returns the total record count for the kind.
func (s *SQLStore) Count(ctx context.Context, kind models.Kind) (int, error) {
	qs, ok := s.queries[kind]
	if !ok || qs.Count == "" {
		return 0, fmt.Errorf("%w: no count query for %s", shared.ErrQueryNotFound, kind)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, qs.Count).Scan(&total); err != nil {
		return 0, fmt.Errorf("%w: count %s: %v", shared.ErrSourceUnavailable, kind, err)
	}
	return total, nil
}

// ReadPage reads one page of source records.
func (s *SQLStore) ReadPage(ctx context.Context, kind models.Kind, variant Variant, offset, limit int) ([]models.SourceRecord, error) {
	qs, ok := s.queries[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no queries configured for %s", shared.ErrQueryNotFound, kind)
	}
	query := qs.forVariant(variant)
	if query == "" {
		return nil, fmt.Errorf("%w: no %s query for %s", shared.ErrQueryNotFound, variant, kind)
	}

	var args []any
	if variant.Paged() {
		args = append(args, sql.Named("offset", offset), sql.Named("limit", limit))
	}

	s.logger.Debug("executing source query", "kind", kind, "variant", variant, "offset", offset, "limit", limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s %s: %v", shared.ErrSourceUnavailable, kind, variant, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: columns for %s: %v", shared.ErrSourceUnavailable, kind, err)
	}

	var records []models.SourceRecord
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("%w: scan %s row: %v", shared.ErrSourceUnavailable, kind, err)
		}

		record := make(models.SourceRecord, len(columns))
		for i, col := range columns {
			record[strings.ToLower(col)] = values[i]
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate %s rows: %v", shared.ErrSourceUnavailable, kind, err)
	}

	return records, nil
}
