//go:build !windows

package client

import (
	"os/exec"
	"syscall"
)

// detach starts the server in its own session so it outlives the caller.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
}
