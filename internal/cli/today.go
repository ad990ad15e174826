package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"smoketrack/internal/api"
	"smoketrack/internal/storage"
	"smoketrack/internal/tracker"
)

// todayJSON is the JSON output structure for the today command.
type todayJSON struct {
	Date            string         `json:"date"`
	TotalCount      int            `json:"total_count"`
	TimeSinceLast   string         `json:"time_since_last"`
	TargetGoal      *int           `json:"target_goal,omitempty"`
	MoneySpent      *float64       `json:"money_spent,omitempty"`
	SuccessRating   *int           `json:"success_rating,omitempty"`
	HourlyBreakdown map[string]int `json:"hourly_breakdown"`
	Triggers        map[string]int `json:"triggers"`
	Events          []eventLine    `json:"events"`
}

type eventLine struct {
	ID              int64  `json:"id"`
	Timestamp       string `json:"timestamp"`
	Notes           string `json:"notes,omitempty"`
	TriggerCategory string `json:"trigger_category,omitempty"`
	Location        string `json:"location,omitempty"`
}

// Execute implements the go-flags Commander interface for TodayCommand.
func (c *TodayCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	tr, store, db, err := openTracker(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	defer db.Close()

	return c.executeWithTracker(tr)
}

// executeWithTracker runs the today logic against a provided tracker (used by tests).
func (c *TodayCommand) executeWithTracker(tr *tracker.Tracker) error {
	day, err := parseDay(c.Day)
	if err != nil {
		return err
	}

	ctx := context.Background()
	stats, err := tr.DayStatistics(ctx, day)
	if err != nil {
		return fmt.Errorf("day statistics: %w", err)
	}

	events, err := tr.EventsForDay(ctx, day)
	if err != nil {
		return fmt.Errorf("events for day: %w", err)
	}

	since := api.TimeSinceLast(events, time.Now())

	if c.globals != nil && c.globals.JSON {
		return c.printJSON(day, stats, events, since)
	}
	return c.printHuman(day, stats, events, since)
}

func (c *TodayCommand) printJSON(day time.Time, stats *tracker.Statistics, events []storage.Event, since string) error {
	out := todayJSON{
		Date:            day.Format(storage.DateLayout),
		TotalCount:      stats.TotalCount,
		TimeSinceLast:   since,
		TargetGoal:      stats.TargetGoal,
		MoneySpent:      stats.MoneySpent,
		SuccessRating:   stats.SuccessRating,
		HourlyBreakdown: stats.HourlyBreakdown,
		Triggers:        stats.Triggers,
		Events:          make([]eventLine, len(events)),
	}

	for i, e := range events {
		out.Events[i] = eventLine{
			ID:              e.ID,
			Timestamp:       e.Timestamp.Format(storage.TimeLayout),
			Notes:           deref(e.Notes),
			TriggerCategory: deref(e.TriggerCategory),
			Location:        deref(e.Location),
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (c *TodayCommand) printHuman(day time.Time, stats *tracker.Statistics, events []storage.Event, since string) error {
	fmt.Printf("Smoketrack — %s\n", day.Format(storage.DateLayout))
	fmt.Println("========================")
	fmt.Printf("Total:         %d\n", stats.TotalCount)
	fmt.Printf("Since last:    %s\n", since)
	if stats.TargetGoal != nil {
		fmt.Printf("Target:        %d\n", *stats.TargetGoal)
	}
	if stats.MoneySpent != nil {
		fmt.Printf("Money spent:   %.2f\n", *stats.MoneySpent)
	}
	if stats.SuccessRating != nil {
		fmt.Printf("Rating:        %d/5\n", *stats.SuccessRating)
	}

	if len(stats.HourlyBreakdown) > 0 {
		fmt.Println()
		fmt.Println("By hour:")
		hours := make([]string, 0, len(stats.HourlyBreakdown))
		for h := range stats.HourlyBreakdown {
			hours = append(hours, h)
		}
		sort.Strings(hours)
		for _, h := range hours {
			n := stats.HourlyBreakdown[h]
			fmt.Printf("  %s:00  %s (%d)\n", h, strings.Repeat("#", n), n)
		}
	}

	if len(stats.Triggers) > 0 {
		fmt.Println()
		fmt.Println("Triggers:")
		triggers := make([]string, 0, len(stats.Triggers))
		for tg := range stats.Triggers {
			triggers = append(triggers, tg)
		}
		sort.Strings(triggers)
		for _, tg := range triggers {
			fmt.Printf("  %-12s %d\n", tg, stats.Triggers[tg])
		}
	}

	if len(events) > 0 {
		fmt.Println()
		fmt.Println("Events (newest first):")
		for _, e := range events {
			line := fmt.Sprintf("  #%-4d %s", e.ID, e.Timestamp.Format("15:04"))
			if t := deref(e.TriggerCategory); t != "" {
				line += "  " + t
			}
			if l := deref(e.Location); l != "" {
				line += "  @" + l
			}
			if n := deref(e.Notes); n != "" {
				line += "  — " + n
			}
			fmt.Println(line)
		}
	}

	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
