package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"smoketrack/internal/storage"
	"smoketrack/internal/tracker"
)

// Execute implements the go-flags Commander interface for LogCommand.
func (c *LogCommand) Execute(args []string) error {
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

// executeWithTracker runs the log logic against a provided tracker (used by tests).
func (c *LogCommand) executeWithTracker(tr *tracker.Tracker) error {
	fields := storage.EventFields{}
	if c.Notes != "" {
		fields.Notes = &c.Notes
	}
	if c.Trigger != "" {
		fields.TriggerCategory = &c.Trigger
	}
	if c.Location != "" {
		fields.Location = &c.Location
	}

	id, err := tr.LogEvent(context.Background(), fields)
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]int64{"id": id})
	}

	fmt.Printf("Logged cigarette #%d\n", id)
	return nil
}
