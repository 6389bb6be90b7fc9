package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/udisondev/questd/internal/config"
	"github.com/udisondev/questd/internal/db"
	"github.com/udisondev/questd/internal/game/quest"
)

// storage bundles the repositories of the configured driver.
type storage struct {
	progress quest.ProgressRepository
	daily    quest.DailyRepository
	close    func()
}

func openStorage(ctx context.Context, cfg config.QuestServer) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		dsn := cfg.Database.DSN()
		if err := db.RunMigrations(ctx, dsn); err != nil {
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")

		database, err := db.New(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		slog.Info("database connected", "host", cfg.Database.Host, "dbname", cfg.Database.DBName)
		return &storage{
			progress: db.NewProgressRepository(database.Pool()),
			daily:    db.NewDailyRepository(database.Pool()),
			close:    database.Close,
		}, nil

	case config.DriverSQLite:
		store, err := db.OpenSQLite(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite storage: %w", err)
		}
		slog.Info("sqlite storage opened", "path", cfg.Storage.SQLitePath)
		return &storage{
			progress: store,
			daily:    store,
			close: func() {
				if err := store.Close(); err != nil {
					slog.Warn("closing sqlite storage", "error", err)
				}
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
