package supervise

import (
	"bytes"
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test drives /bin/sh children")
	}
}

func shell(script string) Spec {
	return Spec{Argv: []string{"sh", "-c", script}}
}

func TestRunEchoHello(t *testing.T) {
	requireUnix(t)
	var s Supervisor
	res, err := s.Run(Spec{Argv: []string{"echo", "hello"}}, 5*time.Second)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Code != 0 {
		t.Errorf("expected code 0, got %d", res.Code)
	}
	if res.Stdout != "hello\n" {
		t.Errorf("expected stdout %q, got %q", "hello\n", res.Stdout)
	}
	if res.Stderr != "" {
		t.Errorf("expected empty stderr, got %q", res.Stderr)
	}
	if res.TimedOut {
		t.Error("unexpected timeout")
	}
}

func TestRunPropagatesExitCode(t *testing.T) {
	requireUnix(t)
	var s Supervisor
	res, err := s.Run(shell("exit 3"), 5*time.Second)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Code != 3 {
		t.Errorf("expected code 3, got %d", res.Code)
	}
}

func TestRunCapturesStderr(t *testing.T) {
	requireUnix(t)
	var s Supervisor
	res, err := s.Run(shell("echo out; echo err 1>&2"), 5*time.Second)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Stdout != "out\n" {
		t.Errorf("unexpected stdout: %q", res.Stdout)
	}
	if res.Stderr != "err\n" {
		t.Errorf("unexpected stderr: %q", res.Stderr)
	}
}

func TestRunTimeout(t *testing.T) {
	requireUnix(t)
	var s Supervisor
	start := time.Now()
	res, err := s.Run(shell("sleep 10"), 500*time.Millisecond)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("timeout took too long: %v", elapsed)
	}
	if res.Code != TimeoutExitCode {
		t.Errorf("expected code %d, got %d", TimeoutExitCode, res.Code)
	}
	if !res.TimedOut {
		t.Error("expected TimedOut")
	}
	if res.Stdout != "" || res.Stderr != "" {
		t.Errorf("expected empty buffers, got stdout=%q stderr=%q", res.Stdout, res.Stderr)
	}
}

func TestRunTimeoutKeepsPartialOutput(t *testing.T) {
	requireUnix(t)
	var s Supervisor
	res, err := s.Run(shell("echo first; sleep 5; echo second"), 500*time.Millisecond)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.TimedOut {
		t.Fatal("expected TimedOut")
	}
	if res.Stdout != "first\n" {
		t.Errorf("expected partial stdout %q, got %q", "first\n", res.Stdout)
	}
	if strings.Contains(res.Stdout, "second") {
		t.Error("captured output past the kill point")
	}
}

func TestRunTimeoutKillsProcessGroup(t *testing.T) {
	requireUnix(t)
	var s Supervisor
	// The child spawns a grandchild that inherits stdout. If the group kill
	// missed it, the final drain would wait for EOF until the grace window.
	start := time.Now()
	res, err := s.Run(shell("sleep 10 & wait"), 300*time.Millisecond)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.TimedOut {
		t.Fatal("expected TimedOut")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("group kill did not take effect promptly: %v", elapsed)
	}
}

func TestRunZeroDeadlineDoesNotHang(t *testing.T) {
	requireUnix(t)
	var s Supervisor
	start := time.Now()
	res, err := s.Run(shell("echo hi; sleep 5"), 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("zero deadline hung for %v", elapsed)
	}
	if !res.TimedOut || res.Code != TimeoutExitCode {
		t.Errorf("expected timeout sentinel, got code=%d timedOut=%v", res.Code, res.TimedOut)
	}
	// Whatever arrived before the kill is a valid prefix; never more.
	if res.Stdout != "" && res.Stdout != "hi\n" {
		t.Errorf("unexpected stdout: %q", res.Stdout)
	}
}

func TestRunNoDeadline(t *testing.T) {
	requireUnix(t)
	var s Supervisor
	res, err := s.Run(shell("sleep 0.2; echo done"), NoDeadline)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.TimedOut || res.Code != 0 || res.Stdout != "done\n" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestRunSpawnError(t *testing.T) {
	var s Supervisor
	_, err := s.Run(Spec{Argv: []string{"leash-test-no-such-binary-490284"}}, 5*time.Second)
	var spawn *SpawnError
	if !errors.As(err, &spawn) {
		t.Fatalf("expected SpawnError, got %v", err)
	}
	if spawn.Unwrap() == nil {
		t.Error("SpawnError should carry the OS error")
	}
}

func TestRunEmptyArgv(t *testing.T) {
	var s Supervisor
	_, err := s.Run(Spec{}, NoDeadline)
	var spawn *SpawnError
	if !errors.As(err, &spawn) {
		t.Fatalf("expected SpawnError, got %v", err)
	}
}

func TestRunWorkingDir(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	var s Supervisor
	res, err := s.Run(Spec{Argv: []string{"sh", "-c", "pwd"}, Dir: dir}, 5*time.Second)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	// macOS tempdirs resolve through symlinks; compare the trailing element.
	if filepath.Base(strings.TrimSpace(res.Stdout)) != filepath.Base(dir) {
		t.Errorf("expected pwd under %q, got %q", dir, res.Stdout)
	}
}

func TestRunEnvMerged(t *testing.T) {
	requireUnix(t)
	var s Supervisor
	spec := shell("printf '%s' \"$LEASH_TEST_TOKEN\"")
	spec.Env = map[string]string{"LEASH_TEST_TOKEN": "tok-1"}
	res, err := s.Run(spec, 5*time.Second)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Stdout != "tok-1" {
		t.Errorf("env not passed, stdout=%q", res.Stdout)
	}
}

func TestRunSignalDeathCode(t *testing.T) {
	requireUnix(t)
	var s Supervisor
	res, err := s.Run(shell("kill -9 $$"), 5*time.Second)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Code != 137 { // 128+SIGKILL
		t.Errorf("expected 137 for SIGKILL death, got %d", res.Code)
	}
	if res.TimedOut {
		t.Error("signal death is not a timeout")
	}
}

func TestRunMirrorsToSinks(t *testing.T) {
	requireUnix(t)
	var out, errBuf bytes.Buffer
	s := Supervisor{Stdout: &out, Stderr: &errBuf}
	res, err := s.Run(shell("echo a; echo b 1>&2"), 5*time.Second)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.String() != res.Stdout || out.String() != "a\n" {
		t.Errorf("stdout mirror mismatch: sink=%q result=%q", out.String(), res.Stdout)
	}
	if errBuf.String() != res.Stderr || errBuf.String() != "b\n" {
		t.Errorf("stderr mirror mismatch: sink=%q result=%q", errBuf.String(), res.Stderr)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("sink closed") }

func TestRunBrokenSinkDoesNotAbortCapture(t *testing.T) {
	requireUnix(t)
	s := Supervisor{Stdout: failingWriter{}, Stderr: failingWriter{}}
	res, err := s.Run(shell("echo survives"), 5*time.Second)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Stdout != "survives\n" {
		t.Errorf("capture lost with broken sink: %q", res.Stdout)
	}
}

func TestRunIdempotentForDeterministicCommands(t *testing.T) {
	requireUnix(t)
	var s Supervisor
	first, err := s.Run(shell("echo same; exit 7"), NoDeadline)
	if err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	second, err := s.Run(shell("echo same; exit 7"), NoDeadline)
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if first.Code != second.Code || first.Stdout != second.Stdout || first.Stderr != second.Stderr {
		t.Errorf("sequential runs differ: %+v vs %+v", first, second)
	}
}

func TestRunLargeOutputByteForByte(t *testing.T) {
	requireUnix(t)
	var s Supervisor
	res, err := s.Run(shell("seq 1 5000"), 10*time.Second)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(res.Stdout, "\n"), "\n")
	if len(lines) != 5000 {
		t.Fatalf("expected 5000 lines, got %d", len(lines))
	}
	if lines[0] != "1" || lines[4999] != "5000" {
		t.Errorf("output corrupted: first=%q last=%q", lines[0], lines[4999])
	}
}

func TestRunShortPollInterval(t *testing.T) {
	requireUnix(t)
	s := Supervisor{PollInterval: 10 * time.Millisecond}
	res, err := s.Run(shell("sleep 2"), 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.TimedOut {
		t.Error("expected timeout with short poll interval")
	}
	if res.Elapsed > time.Second {
		t.Errorf("deadline detection too slow: %v", res.Elapsed)
	}
}
