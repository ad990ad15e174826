package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"smoketrack/internal/config"
	"smoketrack/internal/storage"
	"smoketrack/internal/tracker"
)

// loadConfig resolves the config for a command: the --config path when
// given, otherwise the default location (created with defaults if absent).
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	if globals != nil && globals.Config != "" {
		return config.LoadOrCreateAt(globals.Config)
	}
	return config.LoadOrCreate()
}

// defaultSettings builds the settings rows seeded on every startup.
// Replace-on-conflict: the configured values are authoritative.
func defaultSettings(cfg *config.Config) []storage.Setting {
	return []storage.Setting{
		{Key: "schema_version", Value: config.SchemaVersion},
		{Key: "cigarettes_per_pack", Value: strconv.Itoa(cfg.Tracking.CigarettesPerPack)},
		{Key: "price_per_pack", Value: strconv.FormatFloat(cfg.Tracking.PricePerPack, 'f', -1, 64)},
		{Key: "daily_limit", Value: strconv.Itoa(cfg.Tracking.DailyLimit)},
	}
}

// openTracker opens the configured SQLite database, runs migrations, seeds
// default settings, and returns a ready-to-use tracker. The caller owns
// closing both the store and the db.
func openTracker(cfg *config.Config) (*tracker.Tracker, *storage.SQLiteStore, *sql.DB, error) {
	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return nil, nil, nil, err
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, nil, nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}

	runner := storage.NewMigrationRunner(db)
	if err := runner.Run(); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := storage.NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("create store: %w", err)
	}

	if err := store.SeedDefaultSettings(context.Background(), defaultSettings(cfg)); err != nil {
		store.Close()
		db.Close()
		return nil, nil, nil, fmt.Errorf("seed default settings: %w", err)
	}

	return tracker.New(store), store, db, nil
}

// parseDay parses a --day flag value; empty means today.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	day, err := time.ParseInLocation(storage.DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q (want YYYY-MM-DD)", s)
	}
	return day, nil
}
