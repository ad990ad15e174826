package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// ServeCommand — start the local HTTP API server.
type ServeCommand struct {
	Port     int    `long:"port" description:"Override listen port"`
	LogLevel string `long:"log-level" description:"Override log level"`

	globals *GlobalFlags
	version string
}

// LogCommand — record a cigarette with optional metadata.
type LogCommand struct {
	Notes    string `long:"notes" description:"Free-text notes"`
	Trigger  string `long:"trigger" description:"Trigger category (e.g. stress, social)"`
	Location string `long:"location" description:"Where it happened"`

	globals *GlobalFlags
	version string
}

// TodayCommand — show statistics and events for a day (default today).
type TodayCommand struct {
	Day string `long:"day" description:"Day to show (YYYY-MM-DD, default today)"`

	globals *GlobalFlags
	version string
}

// DeleteCommand — delete a logged cigarette and fix the day counter.
type DeleteCommand struct {
	ID int64 `long:"id" description:"Event ID (required)"`

	globals *GlobalFlags
	version string
}

// VerifyCommand — recompute a day's count from event rows and repair drift.
type VerifyCommand struct {
	Day string `long:"day" description:"Day to verify (YYYY-MM-DD, default today)"`

	globals *GlobalFlags
	version string
}

// GoalCommand — set the per-day goal fields (target, money spent, rating).
type GoalCommand struct {
	Day    string   `long:"day" description:"Day to update (YYYY-MM-DD, default today)"`
	Target *int     `long:"target" description:"Target cigarette count for the day"`
	Spent  *float64 `long:"spent" description:"Money spent that day"`
	Rating *int     `long:"rating" description:"Success rating, 1 to 5"`

	globals *GlobalFlags
	version string
}
