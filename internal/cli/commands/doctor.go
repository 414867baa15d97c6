package commands

import (
	"leash/internal/doctor"
	e "leash/pkg/errors"
)

// Doctor runs environment health checks.
func Doctor(args []string) error {
	results := doctor.Run(loadConfig())
	if !doctor.Print(results) {
		return e.ExitError{Code: 1}
	}
	return nil
}
