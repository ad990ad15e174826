package storage

import "database/sql"

// migrateV001 creates the initial smoketrack schema. Every statement uses
// IF NOT EXISTS for idempotency. daily_stats rows are maintained
// denormalized by the tracker; there are no foreign keys between
// cigarettes and daily_stats, correctness is procedural.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cigarettes (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			notes            TEXT,
			trigger_category TEXT,
			location         TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS daily_stats (
			date           TEXT PRIMARY KEY,
			total_count    INTEGER NOT NULL DEFAULT 0,
			target_goal    INTEGER,
			money_spent    REAL,
			success_rating INTEGER CHECK (success_rating BETWEEN 1 AND 5)
		)`,

		`CREATE TABLE IF NOT EXISTS goals (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			start_date    DATE NOT NULL DEFAULT CURRENT_DATE,
			goal_type     TEXT NOT NULL,
			target_value  INTEGER,
			achieved      BOOLEAN NOT NULL DEFAULT 0,
			achieved_date DATE
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			setting_key   TEXT PRIMARY KEY,
			setting_value TEXT NOT NULL,
			last_updated  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_cigarettes_timestamp ON cigarettes(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_stats_date     ON daily_stats(date)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
