//go:build windows

package runner

import (
	"os"
	"os/exec"
	"syscall"
)

const createNoWindow = 0x08000000

// configure keeps child tools from allocating a console window.
func configure(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: createNoWindow,
	}
}

// interrupt has no console to signal on Windows, so it kills directly.
func interrupt(p *os.Process) error {
	return p.Kill()
}
