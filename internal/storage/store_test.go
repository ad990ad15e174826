package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestStore creates a migrated temporary store for testing. A file
// database rather than :memory: so every pooled connection sees the same
// schema.
func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	store, err := NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func strPtr(s string) *string { return &s }

// insertAt inserts an event at the given time inside a transaction and
// returns its id.
func insertAt(t *testing.T, store *SQLiteStore, ts time.Time, fields EventFields) int64 {
	t.Helper()
	ctx := context.Background()
	var id int64
	err := store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = store.InsertEventTx(ctx, tx, ts, fields)
		return err
	})
	require.NoError(t, err)
	return id
}

func TestInsertEvent_GetEvent_Roundtrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	ts := time.Date(2026, 8, 29, 14, 30, 0, 0, time.Local)
	id := insertAt(t, store, ts, EventFields{
		Notes:           strPtr("after lunch"),
		TriggerCategory: strPtr("stress"),
		Location:        strPtr("balcony"),
	})
	assert.Greater(t, id, int64(0))

	got, err := store.GetEvent(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.True(t, got.Timestamp.Equal(ts), "timestamp should round-trip")
	require.NotNil(t, got.Notes)
	assert.Equal(t, "after lunch", *got.Notes)
	require.NotNil(t, got.TriggerCategory)
	assert.Equal(t, "stress", *got.TriggerCategory)
	require.NotNil(t, got.Location)
	assert.Equal(t, "balcony", *got.Location)
}

func TestInsertEvent_OptionalFieldsStoredAsNull(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id := insertAt(t, store, time.Now(), EventFields{})

	got, err := store.GetEvent(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Notes)
	assert.Nil(t, got.TriggerCategory)
	assert.Nil(t, got.Location)
}

func TestInsertEvent_IDsMonotonicallyIncrease(t *testing.T) {
	store := openTestStore(t)

	id1 := insertAt(t, store, time.Now(), EventFields{})
	id2 := insertAt(t, store, time.Now(), EventFields{})
	assert.Greater(t, id2, id1)
}

func TestGetEvent_NotFoundIsNilNotError(t *testing.T) {
	store := openTestStore(t)

	got, err := store.GetEvent(context.Background(), 9999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdateEventTx_CoalesceMerge(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id := insertAt(t, store, time.Now(), EventFields{
		Notes:           strPtr("original"),
		TriggerCategory: strPtr("stress"),
	})

	// Only notes supplied; trigger must stay.
	var updated bool
	err := store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		updated, err = store.UpdateEventTx(ctx, tx, id, EventFields{Notes: strPtr("edited")})
		return err
	})
	require.NoError(t, err)
	assert.True(t, updated)

	got, err := store.GetEvent(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.Notes)
	assert.Equal(t, "edited", *got.Notes)
	require.NotNil(t, got.TriggerCategory)
	assert.Equal(t, "stress", *got.TriggerCategory)
}

func TestUpdateEventTx_MissingRow(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	var updated bool
	err := store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		updated, err = store.UpdateEventTx(ctx, tx, 424242, EventFields{Notes: strPtr("x")})
		return err
	})
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestIncrementDecrementDay_ClampedAtZero(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	const date = "2026-08-29"

	err := store.WithTx(ctx, func(tx *sql.Tx) error {
		return store.IncrementDayTx(ctx, tx, date)
	})
	require.NoError(t, err)
	err = store.WithTx(ctx, func(tx *sql.Tx) error {
		return store.IncrementDayTx(ctx, tx, date)
	})
	require.NoError(t, err)

	ds, err := store.DayStats(ctx, date)
	require.NoError(t, err)
	require.NotNil(t, ds)
	assert.Equal(t, 2, ds.TotalCount)

	// Three decrements against two increments: must clamp at zero.
	for i := 0; i < 3; i++ {
		err = store.WithTx(ctx, func(tx *sql.Tx) error {
			return store.DecrementDayTx(ctx, tx, date)
		})
		require.NoError(t, err)
	}

	ds, err = store.DayStats(ctx, date)
	require.NoError(t, err)
	require.NotNil(t, ds)
	assert.Equal(t, 0, ds.TotalCount)
}

func TestDayStats_MissingDayIsNil(t *testing.T) {
	store := openTestStore(t)

	ds, err := store.DayStats(context.Background(), "1999-01-01")
	require.NoError(t, err)
	assert.Nil(t, ds)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	errBoom := assert.AnError
	err := store.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := store.InsertEventTx(ctx, tx, time.Now(), EventFields{}); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	count, err := store.CountEventsBetween(ctx, "0000-01-01 00:00:00", "9999-01-01 00:00:00")
	require.NoError(t, err)
	assert.Equal(t, 0, count, "insert should have been rolled back")
}

func TestEventsBetween_OrderAndBounds(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	day := time.Date(2026, 8, 29, 0, 0, 0, 0, time.Local)
	insertAt(t, store, day.Add(9*time.Hour), EventFields{})
	insertAt(t, store, day.Add(15*time.Hour), EventFields{})
	insertAt(t, store, day.Add(12*time.Hour), EventFields{})
	// Previous day and next day must not appear.
	insertAt(t, store, day.Add(-1*time.Hour), EventFields{})
	insertAt(t, store, day.Add(24*time.Hour), EventFields{})

	start := day.Format(TimeLayout)
	end := day.AddDate(0, 0, 1).Format(TimeLayout)

	events, err := store.EventsBetween(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, events, 3)

	for i := 1; i < len(events); i++ {
		assert.False(t, events[i-1].Timestamp.Before(events[i].Timestamp),
			"events should be ordered newest first")
	}
}

func TestEventsBetween_TieBrokenByIDDescending(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	ts := time.Date(2026, 8, 29, 10, 0, 0, 0, time.Local)
	id1 := insertAt(t, store, ts, EventFields{})
	id2 := insertAt(t, store, ts, EventFields{})

	start := time.Date(2026, 8, 29, 0, 0, 0, 0, time.Local).Format(TimeLayout)
	end := time.Date(2026, 8, 30, 0, 0, 0, 0, time.Local).Format(TimeLayout)

	events, err := store.EventsBetween(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, id2, events[0].ID)
	assert.Equal(t, id1, events[1].ID)
}

func TestHourlyCounts_ZeroPaddedKeys(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	day := time.Date(2026, 8, 29, 0, 0, 0, 0, time.Local)
	insertAt(t, store, day.Add(9*time.Hour+15*time.Minute), EventFields{})
	insertAt(t, store, day.Add(9*time.Hour+40*time.Minute), EventFields{})
	insertAt(t, store, day.Add(14*time.Hour+5*time.Minute), EventFields{})

	start := day.Format(TimeLayout)
	end := day.AddDate(0, 0, 1).Format(TimeLayout)

	counts, err := store.HourlyCounts(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, HourCount{Hour: "09", Count: 2}, counts[0])
	assert.Equal(t, HourCount{Hour: "14", Count: 1}, counts[1])
}

func TestTriggerCounts_NullBecomesUnknown(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	day := time.Date(2026, 8, 29, 0, 0, 0, 0, time.Local)
	insertAt(t, store, day.Add(8*time.Hour), EventFields{TriggerCategory: strPtr("stress")})
	insertAt(t, store, day.Add(9*time.Hour), EventFields{TriggerCategory: strPtr("stress")})
	insertAt(t, store, day.Add(10*time.Hour), EventFields{})

	start := day.Format(TimeLayout)
	end := day.AddDate(0, 0, 1).Format(TimeLayout)

	counts, err := store.TriggerCounts(ctx, start, end)
	require.NoError(t, err)

	got := map[string]int{}
	for _, tc := range counts {
		got[tc.Trigger] = tc.Count
	}
	assert.Equal(t, map[string]int{"stress": 2, "unknown": 1}, got)
}

func TestSeedDefaultSettings_ReplaceOnConflict(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.SeedDefaultSettings(ctx, []Setting{
		{Key: "schema_version", Value: "1.0"},
		{Key: "daily_limit", Value: "20"},
	})
	require.NoError(t, err)

	// Re-seeding with a different value must overwrite, not skip.
	err = store.SeedDefaultSettings(ctx, []Setting{
		{Key: "daily_limit", Value: "10"},
	})
	require.NoError(t, err)

	v, ok, err := store.Setting(ctx, "daily_limit")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "10", v)

	v, ok, err = store.Setting(ctx, "schema_version")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1.0", v)
}

func TestSetting_MissingKey(t *testing.T) {
	store := openTestStore(t)

	_, ok, err := store.Setting(context.Background(), "no_such_key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetDayGoalTx_MergesFields(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	const date = "2026-08-29"
	target := 10

	err := store.WithTx(ctx, func(tx *sql.Tx) error {
		return store.SetDayGoalTx(ctx, tx, DayStats{Date: date, TargetGoal: &target})
	})
	require.NoError(t, err)

	spent := 8.5
	err = store.WithTx(ctx, func(tx *sql.Tx) error {
		return store.SetDayGoalTx(ctx, tx, DayStats{Date: date, MoneySpent: &spent})
	})
	require.NoError(t, err)

	ds, err := store.DayStats(ctx, date)
	require.NoError(t, err)
	require.NotNil(t, ds)
	require.NotNil(t, ds.TargetGoal)
	assert.Equal(t, 10, *ds.TargetGoal)
	require.NotNil(t, ds.MoneySpent)
	assert.Equal(t, 8.5, *ds.MoneySpent)
	assert.Equal(t, 0, ds.TotalCount)
}

func TestSetDayGoalTx_RatingConstraintSurfaces(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	bad := 7
	err := store.WithTx(ctx, func(tx *sql.Tx) error {
		return store.SetDayGoalTx(ctx, tx, DayStats{Date: "2026-08-29", SuccessRating: &bad})
	})
	require.Error(t, err, "rating outside 1..5 should fail the CHECK constraint")
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("2026-08-29 14:30:05")
	require.NoError(t, err)
	assert.Equal(t, 14, ts.Hour())

	_, err = ParseTimestamp("not-a-timestamp")
	require.Error(t, err)
}
