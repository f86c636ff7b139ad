// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gamevault/gamevault/internal/catalog"
	catalogpg "github.com/gamevault/gamevault/internal/catalog/postgres"
	"github.com/gamevault/gamevault/internal/config"
	"github.com/gamevault/gamevault/internal/store"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	file       string
	timeout    time.Duration
	jsonOutput bool
}

// importer loads parsed records into the catalog.
type importer interface {
	Import(ctx context.Context, records []catalog.Record) (*catalog.ImportResult, error)
}

// newImporter connects to the database and returns the catalog service plus
// a func closing the connection. Replaced in tests.
var newImporter = func(ctx context.Context, cfg *config.Config) (importer, func(), error) {
	pool, err := store.Connect(ctx, cfg.Database.URL, cfg.Database.ConnectTimeout)
	if err != nil {
		return nil, nil, err
	}
	svc := catalog.NewService(catalogpg.NewRepository(pool), store.NewTransactor(pool))
	return svc, pool.Close, nil
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import games from a CSV file",
		Long: `Imports games and categories from a CSV file laid out as
title, platform, release_date, category, publisher with a header row.
This command is idempotent - existing categories are reused and games
already in the catalog are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.file, "file", "", "CSV file to import")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output the import summary as JSON")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runSeed(cmd *cobra.Command, cfg *seedConfig) error {
	f, err := os.Open(cfg.file)
	if err != nil {
		return oops.Code("SEED_FILE_FAILED").With("file", cfg.file).Wrap(err)
	}
	defer func() { _ = f.Close() }()

	records, err := catalog.ParseCSV(f)
	if err != nil {
		return oops.With("file", cfg.file).Wrap(err)
	}

	appCfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	// Use cmd.Context() to respect SIGINT/SIGTERM signals
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	svc, closeFn, err := newImporter(ctx, appCfg)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer closeFn()

	result, err := svc.Import(ctx, records)
	if err != nil {
		return oops.Code("SEED_FAILED").With("file", cfg.file).Wrap(err)
	}

	slog.Info("catalog seeded",
		"file", cfg.file,
		"categories_created", result.CategoriesCreated,
		"games_created", result.GamesCreated,
		"games_skipped", result.GamesSkipped,
	)

	if cfg.jsonOutput {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return oops.With("operation", "marshal import result").Wrap(err)
		}
		cmd.Println(string(data))
		return nil
	}
	cmd.Printf("Imported %d records: %d categories created, %d games created, %d games skipped\n",
		len(records), result.CategoriesCreated, result.GamesCreated, result.GamesSkipped)
	return nil
}
