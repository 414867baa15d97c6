package commands

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"leash/internal/config"
	e "leash/pkg/errors"
)

// UsageExitCode is returned when the invocation itself is malformed
// (no command, bad timeout). Distinct from any child exit code.
const UsageExitCode = 2

// loadConfig returns the user configuration, falling back to defaults when
// the file is missing or unreadable.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil || cfg == nil {
		return &config.Config{}
	}
	return cfg
}

// splitBudget parses the leading <timeout-seconds> argument and returns the
// deadline plus the child argv. A usage problem is reported on stderr and
// returned as ExitError(2) without spawning anything.
func splitBudget(args []string) (time.Duration, []string, error) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "No command provided")
		fmt.Fprintln(os.Stderr, "Usage: leash <timeout-seconds> <command> [args]")
		return 0, nil, e.ExitError{Code: UsageExitCode}
	}
	seconds, err := strconv.Atoi(args[0])
	if err != nil || seconds < 0 {
		fmt.Fprintf(os.Stderr, "Invalid timeout %q: expected a non-negative whole number of seconds\n", args[0])
		return 0, nil, e.ExitError{Code: UsageExitCode}
	}
	argv := args[1:]
	if len(argv) == 0 {
		fmt.Fprintln(os.Stderr, "No command provided")
		return 0, nil, e.ExitError{Code: UsageExitCode}
	}
	return time.Duration(seconds) * time.Second, argv, nil
}
