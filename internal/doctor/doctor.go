// Package doctor provides environment health checks for leash.
package doctor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"leash/internal/config"
	"leash/internal/history"
	"leash/pkg/terminal"
)

// Status represents check status
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusError
)

// CheckResult contains the outcome of a single check
type CheckResult struct {
	Name    string
	Status  Status
	Message string
}

// Run executes all environment checks.
func Run(cfg *config.Config) []CheckResult {
	return []CheckResult{
		checkShell(),
		checkConfig(),
		checkHistory(cfg),
		checkLogDir(),
	}
}

// Print renders check results in a concise report and returns true when no
// check failed.
func Print(results []CheckResult) bool {
	ok := true
	fmt.Println("leash environment check")
	for _, r := range results {
		icon := terminal.Success("✅")
		switch r.Status {
		case StatusWarning:
			icon = terminal.Warning("⚠️")
		case StatusError:
			icon = terminal.Error("❌")
			ok = false
		}
		fmt.Printf("  %s %-12s %s\n", icon, r.Name, r.Message)
	}
	return ok
}

func checkShell() CheckResult {
	name := "sh"
	if runtime.GOOS == "windows" {
		name = "cmd"
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return CheckResult{Name: "shell", Status: StatusError, Message: fmt.Sprintf("%s not found in PATH", name)}
	}
	return CheckResult{Name: "shell", Status: StatusOK, Message: path}
}

func checkConfig() CheckResult {
	if _, err := os.Stat(config.Path()); os.IsNotExist(err) {
		return CheckResult{Name: "config", Status: StatusOK, Message: "no config file (defaults in effect)"}
	}
	if _, err := config.Load(); err != nil {
		return CheckResult{Name: "config", Status: StatusError, Message: fmt.Sprintf("unreadable: %v", err)}
	}
	return CheckResult{Name: "config", Status: StatusOK, Message: config.Path()}
}

func checkHistory(cfg *config.Config) CheckResult {
	if !cfg.HistoryEnabled() {
		return CheckResult{Name: "history", Status: StatusOK, Message: "disabled"}
	}
	db, err := history.Open(cfg.HistoryDBPath())
	if err != nil {
		return CheckResult{Name: "history", Status: StatusError, Message: err.Error()}
	}
	defer db.Close()
	if err := history.InitSchema(db); err != nil {
		return CheckResult{Name: "history", Status: StatusError, Message: err.Error()}
	}
	return CheckResult{Name: "history", Status: StatusOK, Message: cfg.HistoryDBPath()}
}

func checkLogDir() CheckResult {
	dir := os.ExpandEnv("$HOME/.leash/logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return CheckResult{Name: "logs", Status: StatusWarning, Message: fmt.Sprintf("cannot create %s: %v", dir, err)}
	}
	probe := filepath.Join(dir, ".doctor-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return CheckResult{Name: "logs", Status: StatusWarning, Message: fmt.Sprintf("not writable: %v", err)}
	}
	_ = os.Remove(probe)
	return CheckResult{Name: "logs", Status: StatusOK, Message: dir}
}
