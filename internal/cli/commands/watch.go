package commands

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"leash/internal/config"
	"leash/internal/watch"
	e "leash/pkg/errors"
	"leash/pkg/terminal"
)

// Watch re-runs a supervised command whenever files change.
// Usage: leash watch [-d <dir>] <timeout-seconds> <command> [args]
func Watch(args []string) error {
	dir := "."
	i := 0
	for i < len(args) {
		if (args[i] == "-d" || args[i] == "--dir") && i+1 < len(args) {
			dir = args[i+1]
			i += 2
			continue
		}
		break
	}

	deadline, argv, err := splitBudget(args[i:])
	if err != nil {
		return err
	}

	w, err := watch.New(dir, 0)
	if err != nil {
		return e.Wrap(err, e.ErrFileNotFound, "Cannot watch directory").WithContext("dir", dir)
	}
	defer w.Close()

	stop := make(chan struct{})
	defer close(stop)
	ticks := w.Triggers(stop)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	cfg := loadConfig()
	fmt.Printf("Watching %s — %s (Ctrl-C to stop)\n", dir, strings.Join(argv, " "))
	runPass(cfg, argv, deadline)

	for {
		select {
		case <-interrupt:
			fmt.Println("\nStopped.")
			return nil
		case _, ok := <-ticks:
			if !ok {
				return nil
			}
			fmt.Printf("\nChange detected, re-running %s\n", strings.Join(argv, " "))
			runPass(cfg, argv, deadline)
		}
	}
}

// runPass supervises one watch iteration. Failures are reported inline and
// never end the watch loop.
func runPass(cfg *config.Config, argv []string, deadline time.Duration) {
	started := time.Now()
	_, res, err := superviseOnce(cfg, argv, deadline, "")
	if err != nil {
		fmt.Printf("%s %v\n", terminal.Error("✗"), err)
		return
	}
	elapsed := time.Since(started).Round(10 * time.Millisecond)
	switch {
	case res.TimedOut:
		fmt.Printf("%s timed out after %v\n", terminal.Error("✗"), elapsed)
	case res.Code != 0:
		fmt.Printf("%s exit %d (%v)\n", terminal.Error("✗"), res.Code, elapsed)
	default:
		fmt.Printf("%s ok (%v)\n", terminal.Success("✓"), elapsed)
	}
}
