//go:build !windows

package compile

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcAttr places the child in its own process group so a timeout can
// take down the whole compiler pipeline, not just the driver.
func setProcAttr(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killTree(c *exec.Cmd) error {
	if c.Process == nil {
		return nil
	}
	return unix.Kill(-c.Process.Pid, unix.SIGKILL)
}
