package cli

import (
	"context"
	"fmt"

	"smoketrack/internal/storage"
	"smoketrack/internal/tracker"
)

// Execute implements the go-flags Commander interface for GoalCommand.
func (c *GoalCommand) Execute(args []string) error {
	if c.Target == nil && c.Spent == nil && c.Rating == nil {
		return fmt.Errorf("nothing to set: pass --target, --spent, or --rating")
	}

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

// executeWithTracker runs the goal logic against a provided tracker (used by tests).
func (c *GoalCommand) executeWithTracker(tr *tracker.Tracker) error {
	day, err := parseDay(c.Day)
	if err != nil {
		return err
	}

	if err := tr.SetDayGoal(context.Background(), day, c.Target, c.Spent, c.Rating); err != nil {
		return fmt.Errorf("set day goal: %w", err)
	}

	fmt.Printf("Updated goals for %s\n", day.Format(storage.DateLayout))
	return nil
}
