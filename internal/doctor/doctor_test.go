package doctor

import (
	"os"
	"path/filepath"
	"testing"

	"leash/internal/config"
)

func withTempHome(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	old := os.Getenv("HOME")
	os.Setenv("HOME", tmp)
	t.Cleanup(func() { os.Setenv("HOME", old) })
	return tmp
}

func findCheck(t *testing.T, results []CheckResult, name string) CheckResult {
	t.Helper()
	for _, r := range results {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("check %q missing from %+v", name, results)
	return CheckResult{}
}

func TestRunAllChecksPass(t *testing.T) {
	tmp := withTempHome(t)
	cfg := &config.Config{History: true, HistoryPath: filepath.Join(tmp, "h.db")}

	results := Run(cfg)
	for _, name := range []string{"shell", "config", "history", "logs"} {
		r := findCheck(t, results, name)
		if r.Status == StatusError {
			t.Errorf("check %s failed: %s", name, r.Message)
		}
	}
}

func TestHistoryDisabled(t *testing.T) {
	withTempHome(t)
	r := checkHistory(&config.Config{})
	if r.Status != StatusOK || r.Message != "disabled" {
		t.Errorf("unexpected result: %+v", r)
	}
}

func TestConfigMissingIsOK(t *testing.T) {
	withTempHome(t)
	r := checkConfig()
	if r.Status != StatusOK {
		t.Errorf("missing config should be OK, got %+v", r)
	}
}
