package shared

import (
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// The ledger schema ships embedded so `cmx setup database` works from a
// bare binary. Schema files are named NNNN_description.sql and applied in
// version order; applied versions are recorded in schema_migrations so
// startup reruns are no-ops. There is no down path: the ledger is an
// append-only record of migration outcomes, and discarding it means
// deleting the database file.

//go:embed sql/*.sql
var schemaFiles embed.FS

// schemaMigration is one versioned slice of the ledger schema.
type schemaMigration struct {
	version int
	ddl     string
}

func loadMigrations() ([]schemaMigration, error) {
	entries, err := schemaFiles.ReadDir("sql")
	if err != nil {
		return nil, fmt.Errorf("%w: read schema directory: %v", ErrLedgerWrite, err)
	}

	seen := make(map[int]string)
	var migrations []schemaMigration

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			return nil, fmt.Errorf("%w: unversioned schema file %s", ErrLedgerWrite, name)
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("%w: unversioned schema file %s", ErrLedgerWrite, name)
		}
		if other, dup := seen[version]; dup {
			return nil, fmt.Errorf("%w: schema version %d defined by both %s and %s", ErrLedgerWrite, version, other, name)
		}
		seen[version] = name

		ddl, err := schemaFiles.ReadFile("sql/" + name)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrLedgerWrite, name, err)
		}
		migrations = append(migrations, schemaMigration{version: version, ddl: string(ddl)})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].version < migrations[j].version
	})
	return migrations, nil
}

// RunMigrations brings the ledger database up to the current schema. It is
// safe to call on every startup; already-applied versions are skipped.
func RunMigrations(db *sql.DB) error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("%w: create schema_migrations: %v", ErrLedgerWrite, err)
	}

	for _, m := range migrations {
		var applied bool
		if err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)`, m.version,
		).Scan(&applied); err != nil {
			return fmt.Errorf("%w: check schema version %d: %v", ErrLedgerWrite, m.version, err)
		}
		if applied {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("%w: apply schema version %d: %v", ErrLedgerWrite, m.version, err)
		}
	}
	return nil
}

// applyMigration runs one schema file and records its version, all in a
// single transaction.
func applyMigration(db *sql.DB, m schemaMigration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(m.ddl) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("%v\nstatement: %s", err, stmt)
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, m.version); err != nil {
		return err
	}
	return tx.Commit()
}

// splitStatements breaks a schema file into executable statements. Line
// comments are stripped first so a semicolon inside one cannot split a
// statement in two.
func splitStatements(ddl string) []string {
	var clean []string
	for _, line := range strings.Split(ddl, "\n") {
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
		}
		if line = strings.TrimSpace(line); line != "" {
			clean = append(clean, line)
		}
	}

	var statements []string
	for _, stmt := range strings.Split(strings.Join(clean, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
