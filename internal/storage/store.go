package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Store defines the persistence operations the tracker builds on. Methods
// with a Tx suffix run against a caller-provided transaction so coupled
// writes (cigarettes + daily_stats) commit or roll back as one unit.
type Store interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error

	InsertEventTx(ctx context.Context, tx *sql.Tx, ts time.Time, fields EventFields) (int64, error)
	UpdateEventTx(ctx context.Context, tx *sql.Tx, id int64, fields EventFields) (bool, error)
	DeleteEventTx(ctx context.Context, tx *sql.Tx, id int64) (bool, error)
	EventDateTx(ctx context.Context, tx *sql.Tx, id int64) (string, bool, error)
	IncrementDayTx(ctx context.Context, tx *sql.Tx, date string) error
	DecrementDayTx(ctx context.Context, tx *sql.Tx, date string) error
	SetDayCountTx(ctx context.Context, tx *sql.Tx, date string, count int) error
	SetDayGoalTx(ctx context.Context, tx *sql.Tx, stats DayStats) error

	GetEvent(ctx context.Context, id int64) (*Event, error)
	EventsBetween(ctx context.Context, start, end string) ([]Event, error)
	CountEventsBetween(ctx context.Context, start, end string) (int, error)
	HourlyCounts(ctx context.Context, start, end string) ([]HourCount, error)
	TriggerCounts(ctx context.Context, start, end string) ([]TriggerCount, error)
	DayStats(ctx context.Context, date string) (*DayStats, error)

	SeedDefaultSettings(ctx context.Context, defaults []Setting) error
	Setting(ctx context.Context, key string) (string, bool, error)

	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	// Prepared statements for the hot read paths
	getEvent      *sql.Stmt
	eventsBetween *sql.Stmt
	dayStats      *sql.Stmt
}

// NewSQLiteStore creates a SQLiteStore from an already-opened and migrated
// database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.getEvent, err = s.db.Prepare(`
		SELECT id, timestamp, notes, trigger_category, location
		FROM cigarettes WHERE id = ?
	`)
	if err != nil {
		return err
	}

	s.eventsBetween, err = s.db.Prepare(`
		SELECT id, timestamp, notes, trigger_category, location
		FROM cigarettes
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp DESC, id DESC
	`)
	if err != nil {
		return err
	}

	s.dayStats, err = s.db.Prepare(`
		SELECT date, total_count, target_goal, money_spent, success_rating
		FROM daily_stats WHERE date = ?
	`)
	if err != nil {
		return err
	}

	return nil
}

// WithTx begins a transaction, runs fn, and commits on success. Any error
// from fn rolls the transaction back and is returned unmodified. The
// connection is released on every exit path.
func (s *SQLiteStore) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

// InsertEventTx inserts a cigarette row and returns its id. The timestamp
// is written in local time using TimeLayout.
func (s *SQLiteStore) InsertEventTx(ctx context.Context, tx *sql.Tx, ts time.Time, fields EventFields) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO cigarettes (timestamp, notes, trigger_category, location)
		VALUES (?, ?, ?, ?)`,
		ts.Format(TimeLayout), fields.Notes, fields.TriggerCategory, fields.Location,
	)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// UpdateEventTx merges the supplied fields into an existing row. Nil fields
// are left unchanged (COALESCE); the timestamp is never touched. Returns
// whether a row existed.
func (s *SQLiteStore) UpdateEventTx(ctx context.Context, tx *sql.Tx, id int64, fields EventFields) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE cigarettes
		SET notes            = COALESCE(?, notes),
		    trigger_category = COALESCE(?, trigger_category),
		    location         = COALESCE(?, location)
		WHERE id = ?`,
		fields.Notes, fields.TriggerCategory, fields.Location, id,
	)
	if err != nil {
		return false, fmt.Errorf("update event: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteEventTx removes a cigarette row. Returns whether a row existed.
func (s *SQLiteStore) DeleteEventTx(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	res, err := tx.ExecContext(ctx, "DELETE FROM cigarettes WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete event: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// EventDateTx returns the calendar date ("2006-01-02") of an event's stored
// timestamp, and whether the event exists.
func (s *SQLiteStore) EventDateTx(ctx context.Context, tx *sql.Tx, id int64) (string, bool, error) {
	var date string
	err := tx.QueryRowContext(ctx,
		"SELECT date(timestamp) FROM cigarettes WHERE id = ?", id,
	).Scan(&date)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("event date: %w", err)
	}
	return date, true, nil
}

// IncrementDayTx upserts the daily_stats row for date: insert with
// total_count=1 when absent, otherwise increment by one.
func (s *SQLiteStore) IncrementDayTx(ctx context.Context, tx *sql.Tx, date string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO daily_stats (date, total_count)
		VALUES (?, 1)
		ON CONFLICT(date) DO UPDATE SET
		total_count = total_count + 1`,
		date,
	)
	if err != nil {
		return fmt.Errorf("increment day count: %w", err)
	}
	return nil
}

// DecrementDayTx decrements the daily_stats counter for date, clamped at
// zero. A missing row is a no-op.
func (s *SQLiteStore) DecrementDayTx(ctx context.Context, tx *sql.Tx, date string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE daily_stats
		SET total_count = total_count - 1
		WHERE date = ? AND total_count > 0`,
		date,
	)
	if err != nil {
		return fmt.Errorf("decrement day count: %w", err)
	}
	return nil
}

// SetDayCountTx overwrites the daily_stats counter for date, used by the
// reconcile operation to repair drift.
func (s *SQLiteStore) SetDayCountTx(ctx context.Context, tx *sql.Tx, date string, count int) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO daily_stats (date, total_count)
		VALUES (?, ?)
		ON CONFLICT(date) DO UPDATE SET
		total_count = excluded.total_count`,
		date, count,
	)
	if err != nil {
		return fmt.Errorf("set day count: %w", err)
	}
	return nil
}

// SetDayGoalTx merges the user-set goal fields into the daily_stats row
// for stats.Date, creating it with total_count=0 if absent. Nil fields are
// left unchanged. A success_rating outside 1..5 fails the CHECK constraint
// and surfaces as a store error.
func (s *SQLiteStore) SetDayGoalTx(ctx context.Context, tx *sql.Tx, stats DayStats) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO daily_stats (date, total_count, target_goal, money_spent, success_rating)
		VALUES (?, 0, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
		target_goal    = COALESCE(excluded.target_goal, target_goal),
		money_spent    = COALESCE(excluded.money_spent, money_spent),
		success_rating = COALESCE(excluded.success_rating, success_rating)`,
		stats.Date, stats.TargetGoal, stats.MoneySpent, stats.SuccessRating,
	)
	if err != nil {
		return fmt.Errorf("set day goal: %w", err)
	}
	return nil
}

// GetEvent retrieves a single event by id. A missing id yields (nil, nil),
// not an error.
func (s *SQLiteStore) GetEvent(ctx context.Context, id int64) (*Event, error) {
	e, err := scanEvent(s.getEvent.QueryRowContext(ctx, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// EventsBetween returns events with start <= timestamp < end, newest first,
// ties broken by id descending.
func (s *SQLiteStore) EventsBetween(ctx context.Context, start, end string) ([]Event, error) {
	rows, err := s.eventsBetween.QueryContext(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// CountEventsBetween counts events with start <= timestamp < end.
func (s *SQLiteStore) CountEventsBetween(ctx context.Context, start, end string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM cigarettes WHERE timestamp >= ? AND timestamp < ?",
		start, end,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

// HourlyCounts groups events in [start, end) by hour of day. Only hours
// with at least one event are returned, ascending. Keys come out of
// strftime already zero-padded to two digits.
func (s *SQLiteStore) HourlyCounts(ctx context.Context, start, end string) ([]HourCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT strftime('%H', timestamp) AS hour, COUNT(*) AS count
		FROM cigarettes
		WHERE timestamp >= ? AND timestamp < ?
		GROUP BY hour
		ORDER BY hour`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("hourly counts: %w", err)
	}
	defer rows.Close()

	var counts []HourCount
	for rows.Next() {
		var hc HourCount
		if err := rows.Scan(&hc.Hour, &hc.Count); err != nil {
			return nil, fmt.Errorf("scan hour count: %w", err)
		}
		counts = append(counts, hc)
	}
	return counts, rows.Err()
}

// TriggerCounts groups events in [start, end) by trigger category, with
// NULL normalized to the literal "unknown".
func (s *SQLiteStore) TriggerCounts(ctx context.Context, start, end string) ([]TriggerCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(trigger_category, 'unknown') AS category, COUNT(*) AS count
		FROM cigarettes
		WHERE timestamp >= ? AND timestamp < ?
		GROUP BY trigger_category`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("trigger counts: %w", err)
	}
	defer rows.Close()

	var counts []TriggerCount
	for rows.Next() {
		var tc TriggerCount
		if err := rows.Scan(&tc.Trigger, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan trigger count: %w", err)
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}

// DayStats returns the daily_stats row for date, or (nil, nil) when no row
// exists yet.
func (s *SQLiteStore) DayStats(ctx context.Context, date string) (*DayStats, error) {
	var ds DayStats
	var targetGoal, successRating sql.NullInt64
	var moneySpent sql.NullFloat64

	err := s.dayStats.QueryRowContext(ctx, date).Scan(
		&ds.Date, &ds.TotalCount, &targetGoal, &moneySpent, &successRating,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("day stats: %w", err)
	}

	if targetGoal.Valid {
		v := int(targetGoal.Int64)
		ds.TargetGoal = &v
	}
	if moneySpent.Valid {
		v := moneySpent.Float64
		ds.MoneySpent = &v
	}
	if successRating.Valid {
		v := int(successRating.Int64)
		ds.SuccessRating = &v
	}

	return &ds, nil
}

// SeedDefaultSettings writes the given settings with replace-on-conflict
// semantics. Existing values are overwritten, not merged, so the set of
// defaults is authoritative on every startup.
func (s *SQLiteStore) SeedDefaultSettings(ctx context.Context, defaults []Setting) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		for _, st := range defaults {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO settings (setting_key, setting_value)
				VALUES (?, ?)`,
				st.Key, st.Value,
			); err != nil {
				return fmt.Errorf("seed setting %s: %w", st.Key, err)
			}
		}
		return nil
	})
}

// Setting returns the value for key and whether the key exists.
func (s *SQLiteStore) Setting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT setting_value FROM settings WHERE setting_key = ?", key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting: %w", err)
	}
	return value, true, nil
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{s.getEvent, s.eventsBetween, s.dayStats}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*Event, error) {
	var e Event
	var tsStr string
	var notes, trigger, location sql.NullString

	if err := row.Scan(&e.ID, &tsStr, &notes, &trigger, &location); err != nil {
		return nil, err
	}

	// A malformed timestamp leaves the zero value; display code treats
	// that as unparseable rather than failing the whole read.
	e.Timestamp, _ = ParseTimestamp(tsStr)

	if notes.Valid {
		e.Notes = &notes.String
	}
	if trigger.Valid {
		e.TriggerCategory = &trigger.String
	}
	if location.Valid {
		e.Location = &location.String
	}

	return &e, nil
}

// ParseTimestamp parses a stored timestamp. TimeLayout is what the store
// writes; the fallbacks cover rows written by SQLite's own
// CURRENT_TIMESTAMP default.
func ParseTimestamp(s string) (time.Time, error) {
	formats := []string{
		TimeLayout,
		"2006-01-02T15:04:05Z",
		time.RFC3339,
	}
	for _, f := range formats {
		if t, err := time.ParseInLocation(f, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}
