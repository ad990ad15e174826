package storage

import "time"

// TimeLayout is the canonical timestamp layout used everywhere in the
// database. Timestamps are written in server-local time; day filtering
// relies on lexicographic comparison of strings in this layout.
const TimeLayout = "2006-01-02 15:04:05"

// DateLayout is the calendar-day key layout for daily_stats rows.
const DateLayout = "2006-01-02"

// Event is a single logged cigarette with optional metadata. Optional
// fields are nil when they were never supplied.
type Event struct {
	ID              int64
	Timestamp       time.Time
	Notes           *string
	TriggerCategory *string
	Location        *string
}

// EventFields carries the optional metadata for inserts and partial
// updates. A nil field means "not supplied" and is left unchanged on
// update.
type EventFields struct {
	Notes           *string
	TriggerCategory *string
	Location        *string
}

// DayStats mirrors one daily_stats row: the denormalized per-day counter
// plus the user-set goal fields.
type DayStats struct {
	Date          string
	TotalCount    int
	TargetGoal    *int
	MoneySpent    *float64
	SuccessRating *int
}

// HourCount pairs an hour-of-day key ("00".."23") with an event count.
type HourCount struct {
	Hour  string
	Count int
}

// TriggerCount pairs a trigger category with an event count. A NULL
// category is reported as the literal "unknown".
type TriggerCount struct {
	Trigger string
	Count   int
}

// Setting is one key/value configuration row.
type Setting struct {
	Key         string
	Value       string
	LastUpdated time.Time
}
