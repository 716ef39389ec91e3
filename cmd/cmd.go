// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for the ledger database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize ledger database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a config.toml template to disk",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path for the generated config file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// migrateCommand handles migration runs for single kinds and the full plan.
func migrateCommand(r *Runner) *cli.Command {
	runFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{
				Name:     "kind",
				Aliases:  []string{"k"},
				Usage:    "Content kind to migrate (articles, videos, categories, leagues, sponsors, users)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "variant",
				Usage: "Query variant (test, batch, all)",
				Value: "all",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Records per batch",
				Value: r.config.Migration.BatchSize,
			},
			&cli.IntFlag{
				Name:  "max-batches",
				Usage: "Stop after this many batches (0 = no limit)",
				Value: r.config.Migration.MaxBatches,
			},
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Source row offset to start from",
				Value: r.config.Migration.StartOffset,
			},
			&cli.IntFlag{
				Name:  "batch-workers",
				Usage: "Concurrent batches",
				Value: r.config.Migration.BatchWorkers,
			},
			&cli.IntFlag{
				Name:  "record-workers",
				Usage: "Concurrent records per batch",
				Value: r.config.Migration.RecordWorkers,
			},
		}
	}

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Run content migrations",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Migrate one content kind",
				Flags: append(runFlags(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output summary as JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
						Value: true,
					},
				),
				Action: r.MigrateRun,
			},
			{
				Name:  "plan",
				Usage: "Migrate every kind in dependency order",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Records per batch",
						Value: r.config.Migration.BatchSize,
					},
					&cli.IntFlag{
						Name:  "batch-workers",
						Usage: "Concurrent batches",
						Value: r.config.Migration.BatchWorkers,
					},
					&cli.IntFlag{
						Name:  "record-workers",
						Usage: "Concurrent records per batch",
						Value: r.config.Migration.RecordWorkers,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output summaries as JSON",
					},
				},
				Action: r.MigratePlan,
			},
			{
				Name:   "ui",
				Usage:  "Interactive migration with live progress",
				Flags:  runFlags(),
				Action: r.MigrateUI,
			},
		},
	}
}

// ledgerCommand inspects recorded migration outcomes.
func ledgerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "ledger",
		Usage: "Inspect the migration ledger",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Per-kind success and failure counts",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.LedgerStats,
			},
			{
				Name:  "failures",
				Usage: "List recorded failures for a kind",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "kind",
						Aliases:  []string{"k"},
						Usage:    "Content kind",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "csv",
						Usage: "Write failures to a CSV file",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Base path for the CSV file (default: <kind>_failures.csv)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.LedgerFailures,
			},
		},
	}
}

// mediaCommand exposes the media cache and fetcher directly.
func mediaCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "media",
		Usage: "Media cache operations",
		Commands: []*cli.Command{
			{
				Name:  "resolve",
				Usage: "Resolve a legacy filename to a destination media id, uploading on miss",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "filename",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "caption",
						Usage: "Caption for the upload",
					},
				},
				Action: r.MediaResolve,
			},
			{
				Name:  "fetch",
				Usage: "Download a legacy asset to a local directory",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "filename",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"d"},
						Usage:   "Destination directory",
						Value:   "./media",
					},
				},
				Action: r.MediaFetch,
			},
		},
	}
}

// mappingsCommand inspects cached filename → media id mappings.
func mappingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "mappings",
		Usage: "Inspect cached media mappings",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "List cached media mappings, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of mappings to show (0 = all)",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.MappingsShow,
			},
		},
	}
}
