package cli

import (
	"context"
	"fmt"

	"smoketrack/internal/tracker"
)

// Execute implements the go-flags Commander interface for DeleteCommand.
func (c *DeleteCommand) Execute(args []string) error {
	if c.ID == 0 {
		return fmt.Errorf("--id is required for delete command")
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

// executeWithTracker runs the delete logic against a provided tracker (used by tests).
func (c *DeleteCommand) executeWithTracker(tr *tracker.Tracker) error {
	deleted, err := tr.DeleteEvent(context.Background(), c.ID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if !deleted {
		return fmt.Errorf("no event with id %d", c.ID)
	}

	fmt.Printf("Deleted event %d\n", c.ID)
	return nil
}
