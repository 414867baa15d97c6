package main

import (
	"errors"
	"os"
	"strings"

	"leash/internal/cli"
	"leash/internal/config"
	e "leash/pkg/errors"
	"leash/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Fall back to running with nil config; handle errors centrally
		cfg = nil
	}

	args, verbose, debug := stripGlobalFlags(os.Args)

	// Env overrides
	if strings.EqualFold(os.Getenv("LEASH_VERBOSE"), "1") {
		verbose = true
	}
	if strings.EqualFold(os.Getenv("LEASH_DEBUG"), "1") {
		debug = true
	}

	// Initialize logging
	logger.Initialize(verbose, debug)
	defer logger.Close()

	handler := cli.NewErrorHandler(verbose, debug)
	// Install a panic recoverer to avoid raw panics
	var ph cli.PanicHandler
	defer ph.Recover()

	app := cli.New(cfg)
	if err := app.Run(args); err != nil {
		// Exit codes carry meaning for callers: the supervised child's own
		// code, 124 for a timeout, 2 for a usage problem. Pass them through
		// without the error display used for leash's own failures.
		var exit e.ExitError
		if errors.As(err, &exit) {
			logger.Close()
			os.Exit(exit.Code)
		}
		handler.Handle(err)
	}
}

// stripGlobalFlags removes leading --verbose/--debug flags. Stripping stops
// at the first other argument: everything after the timeout belongs to the
// supervised command and must reach it untouched.
func stripGlobalFlags(argv []string) (args []string, verbose, debug bool) {
	args = make([]string, 0, len(argv))
	if len(argv) > 0 {
		args = append(args, argv[0])
	}
	rest := argv[1:]
	for len(rest) > 0 {
		switch rest[0] {
		case "--verbose":
			verbose = true
		case "--debug":
			debug = true
		default:
			return append(args, rest...), verbose, debug
		}
		rest = rest[1:]
	}
	return args, verbose, debug
}
