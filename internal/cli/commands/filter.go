package commands

import (
	"fmt"
	"os"

	"leash/internal/lcov"
	e "leash/pkg/errors"
)

// Filter removes exclusion-marked coverage data from an lcov tracefile.
// Usage: leash filter [--exclude <glob>]... <input.lcov> <output.lcov>
func Filter(args []string) error {
	var patterns []string
	var paths []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--exclude":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--exclude requires a glob pattern")
				return e.ExitError{Code: UsageExitCode}
			}
			patterns = append(patterns, args[i+1])
			i++
		default:
			paths = append(paths, args[i])
		}
	}
	if len(paths) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: leash filter [--exclude <glob>]... <input.lcov> <output.lcov>")
		return e.ExitError{Code: UsageExitCode}
	}

	globs, err := lcov.CompileExcludes(patterns)
	if err != nil {
		return err
	}
	if err := lcov.FilterFile(paths[0], paths[1], lcov.Options{ExcludePaths: globs}); err != nil {
		return err
	}
	fmt.Printf("Filtered %s -> %s\n", paths[0], paths[1])
	return nil
}
