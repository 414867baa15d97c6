package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"leash/internal/config"
	"leash/internal/history"
	"leash/internal/report"
	"leash/internal/supervise"
	e "leash/pkg/errors"
	"leash/pkg/logger"
)

// Run supervises a command under a wall-clock budget.
// Usage: leash run [--report <path>] <timeout-seconds> <command> [args]
// The plain form `leash <timeout-seconds> <command...>` routes here as well.
func Run(args []string) error {
	var reportPath string
	i := 0
	for i < len(args) {
		if args[i] == "--report" && i+1 < len(args) {
			reportPath = args[i+1]
			i += 2
			continue
		}
		break
	}

	deadline, argv, err := splitBudget(args[i:])
	if err != nil {
		return err
	}
	_, res, err := superviseOnce(loadConfig(), argv, deadline, reportPath)
	if err != nil {
		return err
	}
	if res.Code != 0 {
		return e.ExitError{Code: res.Code}
	}
	return nil
}

// superviseOnce runs one invocation end to end: supervise, timeout banner,
// history record, optional report. Only a spawn failure is returned as an
// error; every other outcome lands in the result.
func superviseOnce(cfg *config.Config, argv []string, deadline time.Duration, reportPath string) (time.Time, supervise.Result, error) {
	sup := supervise.Supervisor{
		PollInterval: cfg.PollInterval(),
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
	}

	started := time.Now()
	logger.Verbosef("supervising %q with budget %s", strings.Join(argv, " "), deadline)
	res, err := sup.Run(supervise.Spec{Argv: argv}, deadline)
	if err != nil {
		return started, res, e.Wrap(err, e.ErrSpawnFailed, "Failed to start command").
			WithContext("command", strings.Join(argv, " "))
	}

	if res.TimedOut {
		printTimeoutBanner(argv, res)
	}
	recordHistory(cfg, argv, started, res)
	if reportPath != "" {
		if werr := report.New(argv, started, res).WriteFile(reportPath); werr != nil {
			logger.Warnf("could not write run report to %s: %v", reportPath, werr)
		}
	}
	return started, res, nil
}

// printTimeoutBanner distinguishes "killed for exceeding its budget" from
// "ran and failed". Live-mirrored output has already been written.
func printTimeoutBanner(argv []string, res supervise.Result) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "--- TIMEOUT ---")
	fmt.Fprintf(os.Stderr, "Command: %s\n", strings.Join(argv, " "))
	fmt.Fprintf(os.Stderr, "Collected stdout bytes: %d\n", len(res.Stdout))
	fmt.Fprintf(os.Stderr, "Collected stderr bytes: %d\n", len(res.Stderr))
}

// recordHistory is best-effort: history trouble never fails a run.
func recordHistory(cfg *config.Config, argv []string, started time.Time, res supervise.Result) {
	if !cfg.HistoryEnabled() {
		return
	}
	db, err := history.Open(cfg.HistoryDBPath())
	if err != nil {
		logger.Debugf("history unavailable: %v", err)
		return
	}
	defer db.Close()
	if err := history.InitSchema(db); err != nil {
		logger.Debugf("history schema: %v", err)
		return
	}
	err = history.Record(db, history.Run{
		StartedAt:   started,
		Command:     history.CommandLine(argv),
		ExitCode:    res.Code,
		TimedOut:    res.TimedOut,
		DurationMS:  res.Elapsed.Milliseconds(),
		StdoutBytes: len(res.Stdout),
		StderrBytes: len(res.Stderr),
	})
	if err != nil {
		logger.Debugf("history record: %v", err)
	}
}
