//go:build unix

package engine

import (
	"os/exec"
	"syscall"
)

// killGroupOnCancel runs the engine in its own process group so cancellation
// also stops the children a wrapper script started.
func killGroupOnCancel(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
