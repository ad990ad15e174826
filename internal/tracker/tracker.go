// Package tracker holds the business logic for logging cigarettes and
// computing per-day statistics. It is the only place the coupling between
// cigarette rows and the denormalized daily_stats counter is enforced:
// every mutation runs inside a single store transaction.
package tracker

import (
	"context"
	"database/sql"
	"time"

	"smoketrack/internal/storage"
)

// Tracker implements event CRUD and day-scoped aggregation on top of a
// storage.Store.
type Tracker struct {
	store storage.Store

	// now is the clock used for new events; replaceable in tests.
	now func() time.Time
}

// Statistics is the aggregate view of one calendar day.
type Statistics struct {
	TotalCount      int
	TargetGoal      *int
	MoneySpent      *float64
	SuccessRating   *int
	HourlyBreakdown map[string]int
	Triggers        map[string]int
}

// New creates a Tracker backed by the given store.
func New(store storage.Store) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// dayBounds computes the half-open local-time range [start, end) covering
// the calendar day of t, plus the daily_stats date key. All three are
// derived from the same local clock reading so insertion, filtering, and
// the counter key always agree on which day an event belongs to.
func dayBounds(t time.Time) (start, end, date string) {
	s := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	e := s.AddDate(0, 0, 1)
	return s.Format(storage.TimeLayout), e.Format(storage.TimeLayout), s.Format(storage.DateLayout)
}

// LogEvent records a cigarette at the current local time and increments
// today's daily_stats counter in the same transaction. Returns the new
// event id.
func (t *Tracker) LogEvent(ctx context.Context, fields storage.EventFields) (int64, error) {
	now := t.now()
	date := now.Format(storage.DateLayout)

	var id int64
	err := t.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = t.store.InsertEventTx(ctx, tx, now, fields)
		if err != nil {
			return err
		}
		return t.store.IncrementDayTx(ctx, tx, date)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetEvent returns the event with the given id, or nil when it does not
// exist.
func (t *Tracker) GetEvent(ctx context.Context, id int64) (*storage.Event, error) {
	return t.store.GetEvent(ctx, id)
}

// UpdateEvent merges the supplied fields into an existing event. Nil
// fields are left unchanged; the timestamp and day counter are never
// touched. Returns whether the event existed.
func (t *Tracker) UpdateEvent(ctx context.Context, id int64, fields storage.EventFields) (bool, error) {
	var updated bool
	err := t.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		updated, err = t.store.UpdateEventTx(ctx, tx, id, fields)
		return err
	})
	return updated, err
}

// DeleteEvent removes an event and decrements its day's counter (clamped
// at zero) in one transaction. The decrement happens before the delete so
// a failure can never leave the counter higher than the rows that remain.
// Returns false without side effects when the id does not exist.
func (t *Tracker) DeleteEvent(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := t.store.WithTx(ctx, func(tx *sql.Tx) error {
		date, ok, err := t.store.EventDateTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		if err := t.store.DecrementDayTx(ctx, tx, date); err != nil {
			return err
		}

		deleted, err = t.store.DeleteEventTx(ctx, tx, id)
		return err
	})
	return deleted, err
}

// EventsForDay lists the events on the given local calendar day, newest
// first with ties broken by id descending.
func (t *Tracker) EventsForDay(ctx context.Context, day time.Time) ([]storage.Event, error) {
	start, end, _ := dayBounds(day)
	return t.store.EventsBetween(ctx, start, end)
}

// DayStatistics assembles the aggregate view for a day: the daily_stats
// row (zero values when absent) plus hourly and trigger breakdowns
// recomputed from the event rows themselves.
func (t *Tracker) DayStatistics(ctx context.Context, day time.Time) (*Statistics, error) {
	start, end, date := dayBounds(day)

	stats := &Statistics{
		HourlyBreakdown: map[string]int{},
		Triggers:        map[string]int{},
	}

	ds, err := t.store.DayStats(ctx, date)
	if err != nil {
		return nil, err
	}
	if ds != nil {
		stats.TotalCount = ds.TotalCount
		stats.TargetGoal = ds.TargetGoal
		stats.MoneySpent = ds.MoneySpent
		stats.SuccessRating = ds.SuccessRating
	}

	hours, err := t.store.HourlyCounts(ctx, start, end)
	if err != nil {
		return nil, err
	}
	for _, h := range hours {
		stats.HourlyBreakdown[h.Hour] = h.Count
	}

	triggers, err := t.store.TriggerCounts(ctx, start, end)
	if err != nil {
		return nil, err
	}
	for _, tc := range triggers {
		stats.Triggers[tc.Trigger] = tc.Count
	}

	return stats, nil
}

// ReconcileDay recomputes a day's true event count and repairs the
// daily_stats counter when it has drifted. Returns the recomputed count
// and whether a repair was needed.
func (t *Tracker) ReconcileDay(ctx context.Context, day time.Time) (int, bool, error) {
	start, end, date := dayBounds(day)

	count, err := t.store.CountEventsBetween(ctx, start, end)
	if err != nil {
		return 0, false, err
	}

	ds, err := t.store.DayStats(ctx, date)
	if err != nil {
		return 0, false, err
	}

	recorded := 0
	if ds != nil {
		recorded = ds.TotalCount
	}
	if recorded == count {
		return count, false, nil
	}

	err = t.store.WithTx(ctx, func(tx *sql.Tx) error {
		return t.store.SetDayCountTx(ctx, tx, date, count)
	})
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

// SetDayGoal upserts the user-set goal fields for a day. Nil fields are
// left unchanged. A success rating outside 1..5 fails the store's CHECK
// constraint.
func (t *Tracker) SetDayGoal(ctx context.Context, day time.Time, targetGoal *int, moneySpent *float64, successRating *int) error {
	_, _, date := dayBounds(day)
	return t.store.WithTx(ctx, func(tx *sql.Tx) error {
		return t.store.SetDayGoalTx(ctx, tx, storage.DayStats{
			Date:          date,
			TargetGoal:    targetGoal,
			MoneySpent:    moneySpent,
			SuccessRating: successRating,
		})
	})
}

// Setting returns a configuration value from the settings table and
// whether the key exists.
func (t *Tracker) Setting(ctx context.Context, key string) (string, bool, error) {
	return t.store.Setting(ctx, key)
}
