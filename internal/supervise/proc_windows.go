//go:build windows

package supervise

import (
	"os"
	"os/exec"
)

// setProcessGroup is a no-op on Windows; there is no POSIX process group to
// arrange, so a timeout kill reaches the direct child only.
func setProcessGroup(cmd *exec.Cmd) {}

// killTree forcibly terminates the child process.
func killTree(p *os.Process) {
	if p == nil {
		return
	}
	_ = p.Kill()
}

// exitCode returns the child's exit code as reported by the wait status.
func exitCode(state *os.ProcessState) int {
	if state == nil {
		return -1
	}
	return state.ExitCode()
}
