package shared

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/microsoft/go-mssqldb"
)

// NewDatabase opens a connection to a SQLite database at the specified path.
// The path can be ":memory:" for an in-memory database.
// Returns an open database connection or an error if connection fails.
func NewDatabase(path string) (*sql.DB, error) {
	return OpenDatabase("sqlite3", SQLiteDSN(path))
}

// SQLiteDSN adds a busy timeout to file-backed paths so concurrent record
// workers wait for the write lock instead of failing with "database is
// locked". In-memory databases and DSNs that already carry parameters are
// returned as-is.
func SQLiteDSN(path string) string {
	if path == "" || strings.Contains(path, ":memory:") || strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000"
}

// OpenDatabase opens a database connection for the given driver and DSN.
// Registered drivers are "sqlite3" (ledger, fixtures) and "sqlserver"
// (legacy CMS source).
func OpenDatabase(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own database.
	if driver == "sqlite3" && strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ConfigureDatabase sets connection pool settings for the database.
// Recommended for production use to limit connections and improve performance.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
}
