// Command initdb creates the journal tables and writes the sample entries
// into an empty database.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"journal/config"
	"journal/db"
	"journal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	noSeed := flag.Bool("no-seed", false, "only run migrations")
	flag.Parse()

	logger := logging.NewText(os.Stderr, slog.LevelInfo)
	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error(ctx, "load config", "err", err)
		os.Exit(1)
	}

	if err := initDB(ctx, cfg.DatabaseURL, !*noSeed, logger); err != nil {
		logger.Error(ctx, "initdb", "err", err)
		os.Exit(1)
	}
}

func initDB(ctx context.Context, dsn string, seed bool, logger *logging.SlogLogger) error {
	store, err := db.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx, logger.StdLogger(slog.LevelInfo)); err != nil {
		return err
	}
	if !seed {
		return nil
	}

	n, err := store.Seed(ctx, db.SeedEntries)
	if err != nil {
		return err
	}
	if n == 0 {
		logger.Info(ctx, "entries table not empty, nothing seeded")
		return nil
	}
	logger.Info(ctx, "seeded entries", "count", n)
	return nil
}
