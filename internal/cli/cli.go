// Package cli provides the command-line interface for the leash tool.
// It implements a modular command system with support for subcommands,
// help text, and version information. The CLI uses a registry pattern
// to register available commands and route execution based on user input.
//
// The primary invocation is the bare form `leash <timeout-seconds>
// <command> [args]`, which supervises a command under a wall-clock
// budget; a numeric first argument routes there directly so no
// subcommand name is required for the common case.
package cli

import (
	"fmt"
	"strconv"

	"leash/internal/cli/commands"
	"leash/internal/config"
	e "leash/pkg/errors"
	"leash/pkg/version"
)

// Command represents a CLI command
type Command interface {
	Name() string
	Description() string
	Run(args []string) error
}

// CLI represents the command-line interface
type CLI struct {
	config   *config.Config
	commands map[string]Command
}

// New creates a new CLI instance
func New(cfg *config.Config) *CLI {
	c := &CLI{config: cfg, commands: make(map[string]Command)}
	c.registerCommands()
	return c
}

func (c *CLI) register(cmd Command) {
	c.commands[cmd.Name()] = cmd
}

// registerCommands registers all available commands
func (c *CLI) registerCommands() {
	c.register(NewRunCommand())
	c.register(NewFilterCommand())
	c.register(NewWatchCommand())
	c.register(NewHistoryCommand())
	c.register(NewDoctorCommand())
}

// Run executes the CLI with given arguments
func (c *CLI) Run(args []string) error {
	if len(args) < 2 {
		c.printUsage()
		return e.ExitError{Code: commands.UsageExitCode}
	}
	switch args[1] {
	case "help", "--help", "-h":
		c.printUsage()
		return nil
	case "version", "--version", "-v":
		fmt.Printf("leash %s\n", version.Version)
		return nil
	default:
		// Bare form: a numeric first argument is a timeout budget.
		if _, err := strconv.Atoi(args[1]); err == nil {
			return commands.Run(args[1:])
		}
		if cmd, ok := c.commands[args[1]]; ok {
			return cmd.Run(args[2:])
		}
		c.printUsage()
		return fmt.Errorf("unknown command: %s", args[1])
	}
}

func (c *CLI) printUsage() {
	fmt.Println("Usage: leash <timeout-seconds> <command> [args]")
	fmt.Println("       leash <subcommand> [args]")
	fmt.Println("Subcommands:")
	for name, cmd := range c.commands {
		fmt.Printf("  %-8s %s\n", name, cmd.Description())
	}
	fmt.Println("  version  Show version")
	fmt.Println("  help     Show this help")
}
