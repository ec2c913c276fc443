//go:build !windows

package runner

import (
	"os"
	"os/exec"
	"syscall"
)

func configure(_ *exec.Cmd) {}

// interrupt asks the process to stop. ffmpeg finalizes its output and exits
// on SIGTERM.
func interrupt(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}
