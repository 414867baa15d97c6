// Package supervise runs a single external command under a wall-clock budget.
// It captures stdout and stderr while mirroring both to caller-supplied sinks,
// and kills the whole process group when the deadline expires. Output captured
// before the kill is preserved in the result.
//
// A Supervisor holds no state across invocations; concurrent Run calls on
// distinct Supervisor values are safe.
package supervise

import (
	"bytes"
	"errors"
	"io"
	"os"
	"os/exec"
	"time"

	"leash/pkg/logger"
)

// TimeoutExitCode is reported when the command is killed for exceeding its
// deadline, matching the convention of coreutils timeout(1).
const TimeoutExitCode = 124

// NoDeadline disables the wall-clock limit. Any negative deadline behaves
// the same; a deadline of exactly 0 expires on the first drain pass.
const NoDeadline time.Duration = -1

const (
	defaultPollInterval = 100 * time.Millisecond
	eofGrace            = 500 * time.Millisecond
	readChunkSize       = 32 << 10
)

// Spec describes the command to supervise. It is read-only once Run starts.
type Spec struct {
	Argv []string          // argv-style command; Argv[0] is resolved via PATH
	Dir  string            // working directory; empty means inherit
	Env  map[string]string // merged over the parent environment
}

// Result is produced exactly once per invocation. Timeout, non-zero exit and
// signal death are all represented here, never as errors.
type Result struct {
	Code     int           // child exit code, TimeoutExitCode, or 128+signal
	Stdout   string        // accumulated stdout, possibly partial on timeout
	Stderr   string        // accumulated stderr, possibly partial on timeout
	Elapsed  time.Duration // wall-clock duration of the invocation
	TimedOut bool
}

// SpawnError reports that the command could not be started at all. It is the
// only failure Run surfaces as an error; no partial result accompanies it.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string { return "spawn failed: " + e.Err.Error() }
func (e *SpawnError) Unwrap() error { return e.Err }

// Supervisor configures one or more independent Run invocations.
type Supervisor struct {
	// PollInterval bounds the multiplexed wait so the deadline check is never
	// starved. Defaults to 100ms. Must stay small relative to the timeout
	// granularity callers need.
	PollInterval time.Duration

	// Stdout and Stderr receive the child's output as it arrives, in addition
	// to capture. Write failures are swallowed; nil discards.
	Stdout io.Writer
	Stderr io.Writer
}

// streamEvent is one pump delivery: a chunk of bytes or an end-of-stream mark.
type streamEvent struct {
	index int
	data  []byte
	eof   bool
	err   error // non-EOF read failure; the stream is abandoned
}

// streamState is owned exclusively by the supervising goroutine.
type streamState struct {
	name string
	buf  bytes.Buffer
	sink io.Writer
	open bool
}

// Run spawns the command and drains both output streams until the process
// exits or the deadline fires. A negative deadline waits indefinitely.
func (s *Supervisor) Run(spec Spec, deadline time.Duration) (Result, error) {
	if len(spec.Argv) == 0 {
		return Result{}, &SpawnError{Err: errors.New("empty command")}
	}
	poll := s.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}

	cmd := exec.Command(spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		env := os.Environ()
		for k, v := range spec.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}
	// Own process group so a timeout kill reaches descendants too.
	setProcessGroup(cmd)

	// Plain os.Pipe pairs instead of cmd.StdoutPipe: Wait then never closes
	// the read ends behind the pumps, so no tail bytes can be lost between
	// process exit and the last read.
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return Result{}, &SpawnError{Err: err}
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeAll(stdoutR, stdoutW)
		return Result{}, &SpawnError{Err: err}
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	streams := []*streamState{
		{name: "stdout", sink: s.Stdout, open: true},
		{name: "stderr", sink: s.Stderr, open: true},
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		closeAll(stdoutR, stdoutW, stderrR, stderrW)
		return Result{}, &SpawnError{Err: err}
	}
	// The child holds its own copies of the write ends.
	closeAll(stdoutW, stderrW)
	defer closeAll(stdoutR, stderrR)

	events := make(chan streamEvent, 16)
	quit := make(chan struct{})
	defer close(quit)
	go pump(0, stdoutR, events, quit)
	go pump(1, stderrR, events, quit)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	exited := false
	timedOut := false
	for {
		// A child that already exited cannot time out; the remaining passes
		// only drain queued output.
		if !exited && deadline >= 0 && time.Since(start) > deadline {
			timedOut = true
			killTree(cmd.Process)
			<-done
			exited = true
			break
		}

		saw := false
		select {
		case ev := <-events:
			consume(streams, ev)
			saw = true
			drainQueued(streams, events)
		case <-done:
			exited = true
			done = nil // receiving from nil blocks; exit detection is latched
		case <-time.After(poll):
		}

		// Exit only after a pass with no events, so a final burst emitted
		// right at process exit is not missed.
		if exited && !saw {
			break
		}
	}

	// Final drain: collect whatever the pumps still hold. The write ends are
	// closed once the process group is gone, so EOF is normally immediate;
	// the grace window guards against descendants that escaped the group.
	awaitEOF(streams, events, eofGrace)
	drainQueued(streams, events)

	result := Result{
		Stdout:   streams[0].buf.String(),
		Stderr:   streams[1].buf.String(),
		Elapsed:  time.Since(start),
		TimedOut: timedOut,
	}
	if timedOut {
		result.Code = TimeoutExitCode
	} else {
		result.Code = exitCode(cmd.ProcessState)
	}
	return result, nil
}

// pump reads chunks from r and delivers them to the supervising goroutine.
// It is the only reader of r and never touches the stream buffers. The quit
// channel unblocks pending sends once the supervisor stops listening.
func pump(index int, r io.Reader, events chan<- streamEvent, quit <-chan struct{}) {
	buf := make([]byte, readChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case events <- streamEvent{index: index, data: data}:
			case <-quit:
				return
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				err = nil
			}
			select {
			case events <- streamEvent{index: index, eof: true, err: err}:
			case <-quit:
			}
			return
		}
	}
}

// consume applies one event. Read failures end that stream only; the other
// stream and the loop keep going.
func consume(streams []*streamState, ev streamEvent) {
	st := streams[ev.index]
	if ev.eof {
		st.open = false
		if ev.err != nil {
			logger.Debugf("supervise: %s read error: %v", st.name, ev.err)
		}
		return
	}
	st.buf.Write(ev.data)
	if st.sink != nil {
		_, _ = st.sink.Write(ev.data) // best-effort mirror
	}
}

// drainQueued consumes events without waiting.
func drainQueued(streams []*streamState, events <-chan streamEvent) {
	for {
		select {
		case ev := <-events:
			consume(streams, ev)
		default:
			return
		}
	}
}

// awaitEOF waits up to grace for every stream to report end-of-stream.
func awaitEOF(streams []*streamState, events <-chan streamEvent, grace time.Duration) {
	timeout := time.After(grace)
	for anyOpen(streams) {
		select {
		case ev := <-events:
			consume(streams, ev)
		case <-timeout:
			return
		}
	}
}

func anyOpen(streams []*streamState) bool {
	for _, st := range streams {
		if st.open {
			return true
		}
	}
	return false
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
