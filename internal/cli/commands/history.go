package commands

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"leash/internal/history"
	e "leash/pkg/errors"
)

// History lists recent supervised runs, newest first.
// Usage: leash history [-n <count>]
func History(args []string) error {
	limit := 20
	for i := 0; i < len(args); i++ {
		if (args[i] == "-n" || args[i] == "--limit") && i+1 < len(args) {
			n, err := strconv.Atoi(args[i+1])
			if err != nil || n <= 0 {
				fmt.Fprintf(os.Stderr, "Invalid history limit %q: expected a positive count, e.g. leash history -n 10\n", args[i+1])
				return e.ExitError{Code: UsageExitCode}
			}
			limit = n
			i++
		}
	}

	cfg := loadConfig()
	db, err := history.Open(cfg.HistoryDBPath())
	if err != nil {
		return e.Wrap(err, e.ErrHistoryUnavailable, "Cannot open run history").
			WithContext("path", cfg.HistoryDBPath())
	}
	defer db.Close()
	if err := history.InitSchema(db); err != nil {
		return e.Wrap(err, e.ErrHistoryUnavailable, "Run history is corrupted").
			WithContext("path", cfg.HistoryDBPath())
	}

	runs, err := history.Recent(db, limit)
	if err != nil {
		return e.Wrap(err, e.ErrHistoryUnavailable, "Cannot read run history")
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs. Enable recording with \"history\": true in ~/.leash.json")
		return nil
	}

	for _, r := range runs {
		status := fmt.Sprintf("exit %d", r.ExitCode)
		if r.TimedOut {
			status = "TIMEOUT"
		}
		fmt.Printf("%s  %-8s %6dms  %s\n",
			r.StartedAt.Format(time.DateTime), status, r.DurationMS, r.Command)
	}
	return nil
}
