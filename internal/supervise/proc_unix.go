//go:build !windows

package supervise

import (
	"os"
	"os/exec"
	"syscall"
)

// setProcessGroup puts the child in its own process group so killTree can
// signal the whole tree at once.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killTree forcibly terminates the process group. Negative PID targets the
// group; the direct kill is a fallback when the group signal fails.
func killTree(p *os.Process) {
	if p == nil {
		return
	}
	if err := syscall.Kill(-p.Pid, syscall.SIGKILL); err != nil {
		_ = p.Kill()
	}
}

// exitCode maps the wait status to a shell-style exit code: the child's own
// code on normal exit, 128+signal when killed by a signal.
func exitCode(state *os.ProcessState) int {
	if state == nil {
		return -1
	}
	if code := state.ExitCode(); code >= 0 {
		return code
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return -1
}
