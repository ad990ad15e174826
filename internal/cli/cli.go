package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Serve  *ServeCommand
	Log    *LogCommand
	Today  *TodayCommand
	Delete *DeleteCommand
	Verify *VerifyCommand
	Goal   *GoalCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "smoketrack"
	parser.LongDescription = "Single-user cigarette tracker with per-day aggregate statistics."

	cmds := &commands{
		Serve:  &ServeCommand{globals: &globals, version: version},
		Log:    &LogCommand{globals: &globals, version: version},
		Today:  &TodayCommand{globals: &globals, version: version},
		Delete: &DeleteCommand{globals: &globals, version: version},
		Verify: &VerifyCommand{globals: &globals, version: version},
		Goal:   &GoalCommand{globals: &globals, version: version},
	}

	parser.AddCommand("serve", "Start the HTTP API server", "Start the local HTTP API server.", cmds.Serve)
	parser.AddCommand("log", "Record a cigarette", "Record a cigarette with optional notes, trigger, and location.", cmds.Log)
	parser.AddCommand("today", "Show a day's statistics", "Show statistics and logged events for a day (default today).", cmds.Today)
	parser.AddCommand("delete", "Delete a logged cigarette", "Delete a logged cigarette and decrement its day counter.", cmds.Delete)
	parser.AddCommand("verify", "Verify and repair a day counter", "Recompute a day's count from event rows and repair drift.", cmds.Verify)
	parser.AddCommand("goal", "Set per-day goal fields", "Set the target count, money spent, or success rating for a day.", cmds.Goal)

	return parser, &globals, cmds
}

// Run is the main entry point for the smoketrack CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("smoketrack %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
