package commands

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"leash/internal/history"
	e "leash/pkg/errors"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test drives /bin/sh children")
	}
}

func withTempHome(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	old := os.Getenv("HOME")
	os.Setenv("HOME", tmp)
	t.Cleanup(func() { os.Setenv("HOME", old) })
	return tmp
}

func exitCodeOf(t *testing.T, err error) int {
	t.Helper()
	var exit e.ExitError
	if !errors.As(err, &exit) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	return exit.Code
}

func TestSplitBudget(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantErr  bool
		wantSecs time.Duration
	}{
		{name: "empty", args: nil, wantErr: true},
		{name: "no command", args: []string{"5"}, wantErr: true},
		{name: "bad timeout", args: []string{"soon", "true"}, wantErr: true},
		{name: "negative timeout", args: []string{"-1", "true"}, wantErr: true},
		{name: "valid", args: []string{"30", "make", "test"}, wantSecs: 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deadline, argv, err := splitBudget(tt.args)
			if tt.wantErr {
				if code := exitCodeOf(t, err); code != UsageExitCode {
					t.Errorf("expected exit %d, got %d", UsageExitCode, code)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if deadline != tt.wantSecs {
				t.Errorf("deadline: got %v want %v", deadline, tt.wantSecs)
			}
			if len(argv) != len(tt.args)-1 {
				t.Errorf("argv: got %v", argv)
			}
		})
	}
}

func TestRun_NoCommandExitsTwo(t *testing.T) {
	withTempHome(t)
	if code := exitCodeOf(t, Run([]string{"5"})); code != UsageExitCode {
		t.Errorf("expected exit %d, got %d", UsageExitCode, code)
	}
}

func TestRun_Success(t *testing.T) {
	requireUnix(t)
	withTempHome(t)
	if err := Run([]string{"5", "true"}); err != nil {
		t.Errorf("expected nil error for successful command, got %v", err)
	}
}

func TestRun_PropagatesChildExitCode(t *testing.T) {
	requireUnix(t)
	withTempHome(t)
	err := Run([]string{"5", "sh", "-c", "exit 3"})
	if code := exitCodeOf(t, err); code != 3 {
		t.Errorf("expected exit 3, got %d", code)
	}
}

func TestRun_TimeoutExitsSentinel(t *testing.T) {
	requireUnix(t)
	withTempHome(t)
	err := Run([]string{"1", "sleep", "10"})
	if code := exitCodeOf(t, err); code != 124 {
		t.Errorf("expected exit 124, got %d", code)
	}
}

func TestRun_SpawnFailure(t *testing.T) {
	withTempHome(t)
	err := Run([]string{"5", "leash-test-no-such-binary-55123"})
	var leashErr *e.LeashError
	if !errors.As(err, &leashErr) || leashErr.Code != e.ErrSpawnFailed {
		t.Fatalf("expected SPAWN_FAILED LeashError, got %v", err)
	}
}

func TestRun_WritesReport(t *testing.T) {
	requireUnix(t)
	tmp := withTempHome(t)
	path := filepath.Join(tmp, "report.json")
	if err := Run([]string{"--report", path, "5", "echo", "hi"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("report not written: %v", err)
	}
}

func TestRun_RecordsHistoryWhenEnabled(t *testing.T) {
	requireUnix(t)
	tmp := withTempHome(t)
	cfgJSON := `{"history": true, "history_path": "` + filepath.Join(tmp, "h.db") + `"}`
	if err := os.WriteFile(filepath.Join(tmp, ".leash.json"), []byte(cfgJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Run([]string{"5", "echo", "recorded"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	db, err := history.Open(filepath.Join(tmp, "h.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	runs, err := history.Recent(db, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Command != "echo recorded" || runs[0].ExitCode != 0 {
		t.Errorf("unexpected history contents: %+v", runs)
	}
}
