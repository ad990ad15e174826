package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"smoketrack/internal/storage"
	"smoketrack/internal/tracker"
)

// Execute implements the go-flags Commander interface for VerifyCommand.
func (c *VerifyCommand) Execute(args []string) error {
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

// executeWithTracker runs the verify logic against a provided tracker (used by tests).
func (c *VerifyCommand) executeWithTracker(tr *tracker.Tracker) error {
	day, err := parseDay(c.Day)
	if err != nil {
		return err
	}

	count, repaired, err := tr.ReconcileDay(context.Background(), day)
	if err != nil {
		return fmt.Errorf("reconcile day: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"date":     day.Format(storage.DateLayout),
			"count":    count,
			"repaired": repaired,
		})
	}

	if repaired {
		fmt.Printf("%s: counter repaired, true count is %d\n", day.Format(storage.DateLayout), count)
	} else {
		fmt.Printf("%s: counter consistent (%d)\n", day.Format(storage.DateLayout), count)
	}
	return nil
}
