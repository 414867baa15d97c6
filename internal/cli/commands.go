package cli

import (
	"leash/internal/cli/commands"
)

// Real command implementations using the extracted command functions
type runCmd struct{}

func (runCmd) Name() string        { return "run" }
func (runCmd) Description() string { return "Supervise a command under a timeout" }
func (runCmd) Run(args []string) error {
	return commands.Run(args)
}

type filterCmd struct{}

func (filterCmd) Name() string        { return "filter" }
func (filterCmd) Description() string { return "Strip exclusion markers from lcov tracefiles" }
func (filterCmd) Run(args []string) error {
	return commands.Filter(args)
}

type watchCmd struct{}

func (watchCmd) Name() string        { return "watch" }
func (watchCmd) Description() string { return "Re-run a supervised command on file changes" }
func (watchCmd) Run(args []string) error {
	return commands.Watch(args)
}

type historyCmd struct{}

func (historyCmd) Name() string        { return "history" }
func (historyCmd) Description() string { return "List recent supervised runs" }
func (historyCmd) Run(args []string) error {
	return commands.History(args)
}

type doctorCmd struct{}

func (doctorCmd) Name() string        { return "doctor" }
func (doctorCmd) Description() string { return "System health check" }
func (doctorCmd) Run(args []string) error {
	return commands.Doctor(args)
}

// Command factory functions
func NewRunCommand() Command     { return runCmd{} }
func NewFilterCommand() Command  { return filterCmd{} }
func NewWatchCommand() Command   { return watchCmd{} }
func NewHistoryCommand() Command { return historyCmd{} }
func NewDoctorCommand() Command  { return doctorCmd{} }
