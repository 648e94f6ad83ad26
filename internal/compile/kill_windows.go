//go:build windows

package compile

import "os/exec"

func setProcAttr(c *exec.Cmd) {}

func killTree(c *exec.Cmd) error {
	if c.Process == nil {
		return nil
	}
	return c.Process.Kill()
}
