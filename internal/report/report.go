// Package report builds machine-readable summaries of supervised runs.
// A report carries per-stream byte counts and BLAKE3 digests of the captured
// output, so CI pipelines can compare runs for output drift without storing
// the output itself.
package report

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"leash/internal/supervise"
	"leash/pkg/version"
)

// StreamSummary describes one captured output stream.
type StreamSummary struct {
	Bytes  int    `json:"bytes"`
	BLAKE3 string `json:"blake3"`
}

// SystemInfo records where the run happened.
type SystemInfo struct {
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	GoVersion    string `json:"go_version"`
}

// Report is the exported run record.
type Report struct {
	ID        string        `json:"id"`
	Version   string        `json:"version"`
	Command   []string      `json:"command"`
	StartedAt time.Time     `json:"started_at"`
	ElapsedMS int64         `json:"elapsed_ms"`
	ExitCode  int           `json:"exit_code"`
	TimedOut  bool          `json:"timed_out"`
	Stdout    StreamSummary `json:"stdout"`
	Stderr    StreamSummary `json:"stderr"`
	System    SystemInfo    `json:"system_info"`
}

// New assembles a report for one finished invocation.
func New(argv []string, startedAt time.Time, res supervise.Result) Report {
	return Report{
		ID:        uuid.New().String(),
		Version:   version.Version,
		Command:   argv,
		StartedAt: startedAt.UTC(),
		ElapsedMS: res.Elapsed.Milliseconds(),
		ExitCode:  res.Code,
		TimedOut:  res.TimedOut,
		Stdout:    summarize(res.Stdout),
		Stderr:    summarize(res.Stderr),
		System: SystemInfo{
			OS:           runtime.GOOS,
			Architecture: runtime.GOARCH,
			GoVersion:    runtime.Version(),
		},
	}
}

// WriteFile writes the report as indented JSON, creating parent directories
// as needed.
func (r Report) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func summarize(captured string) StreamSummary {
	sum := blake3.Sum256([]byte(captured))
	return StreamSummary{
		Bytes:  len(captured),
		BLAKE3: hex.EncodeToString(sum[:]),
	}
}
