package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sportsdesk/cmx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the ledger database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	r.logger.Info("initializing ledger database", "path", config.Ledger.Path)

	db, err := shared.NewDatabase(config.Ledger.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Ledger.MaxOpenConns, config.Ledger.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Ledger.Path)
	return nil
}

// SetupConfig writes the embedded config template to disk.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	outputPath := cmd.String("output")

	if err := shared.CreateConfigFile(outputPath); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	r.logger.Info("config file created", "path", outputPath)

	r.writePlain("✓ Config template written to %s\n", outputPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Fill in [source] with the legacy database DSN\n")
	r.writePlain("2. Fill in [api] with the destination base URL and migration key\n")
	r.writePlain("3. Run 'cmx setup database' to initialize the ledger\n")

	return nil
}
