// Command seed loads a YAML fixture of users, categories, groups and
// transactions into a phobhub database.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/phobhub/phobhub/internal/auth"
	"github.com/phobhub/phobhub/internal/groups"
	"github.com/phobhub/phobhub/internal/ledger"
	"github.com/phobhub/phobhub/internal/notifications"
	"github.com/phobhub/phobhub/internal/seed"
	"github.com/phobhub/phobhub/internal/storage/sqlite"
	"github.com/phobhub/phobhub/pkg/logging"
)

func main() {
	dbPath := pflag.String("db", "./data/phobhub.db", "path to the SQLite database")
	file := pflag.StringP("file", "f", "seed.yaml", "fixture file to load")
	logLevel := pflag.String("log-level", "info", "log level (debug, info, warn, error)")
	pflag.Parse()

	logger := logging.Setup(*logLevel, "text")
	if err := run(context.Background(), logger, *dbPath, *file); err != nil {
		logger.Error("Seeding failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, dbPath, file string) error {
	fixture, err := seed.LoadFile(file)
	if err != nil {
		return err
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	notifier := notifications.NewService(store, logger)
	seeder := seed.NewSeeder(
		auth.NewPasswordAuthenticator(store),
		groups.NewService(store, notifier, groups.WithLogger(logger)),
		ledger.NewService(store, ledger.WithLogger(logger)),
		logger,
	)

	sum, err := seeder.Apply(ctx, fixture)
	if err != nil {
		return fmt.Errorf("apply %s: %w", file, err)
	}
	logger.Info("Database seeded",
		"database", dbPath,
		"users", sum.Users,
		"categories", sum.Categories,
		"groups", sum.Groups,
		"members", sum.Members,
		"transactions", sum.Transactions,
	)
	return nil
}
