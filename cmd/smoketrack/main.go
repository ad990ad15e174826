package main

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"smoketrack/internal/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// Optional .env for local development; missing file is fine.
	_ = godotenv.Load()

	log.SetTimeFormat(time.Stamp)

	if err := cli.Run(version); err != nil {
		log.Error("command failed", "error", err)
		os.Exit(1)
	}
}
