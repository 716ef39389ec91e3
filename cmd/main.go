package main

import (
	"context"
	"database/sql"
	"errors"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/sportsdesk/cmx/internal/services"
	"github.com/sportsdesk/cmx/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	dest := services.NewClient(config.API, logger)

	var ledgerDB *sql.DB
	if db, err := shared.NewDatabase(config.Ledger.Path); err == nil {
		shared.ConfigureDatabase(db, config.Ledger.MaxOpenConns, config.Ledger.MaxIdleConns)
		ledgerDB = db
	} else {
		logger.Warn("ledger database unavailable", "path", config.Ledger.Path, "error", err)
	}

	var sourceDB *sql.DB
	if config.Source.DSN != "" {
		if db, err := shared.OpenDatabase(config.Source.Driver, config.Source.DSN); err == nil {
			shared.ConfigureDatabase(db, config.Source.MaxOpenConns, config.Source.MaxIdleConns)
			sourceDB = db
		} else {
			logger.Warn("source database unavailable", "driver", config.Source.Driver, "error", err)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:      config,
		Destination: dest,
		SourceDB:    sourceDB,
		LedgerDB:    ledgerDB,
		Logger:      logger,
	})

	app := &cli.Command{
		Name:     "cmx",
		Usage:    "Migrate legacy CMS content into the new platform",
		Version:  "0.4.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
