package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"smoketrack/internal/api"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if c.LogLevel != "" {
		level = c.LogLevel
	}
	if c.globals != nil && c.globals.Verbose {
		level = "debug"
	}
	if lvl, err := log.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	}

	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	tr, store, db, err := openTracker(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	defer db.Close()

	if v, ok, err := tr.Setting(context.Background(), "schema_version"); err == nil && ok {
		log.Info("database ready", "schema_version", v)
	}

	return api.New(tr, cfg.Addr()).Run()
}
