package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"
)

// DefaultGrace is how long Terminate waits after the stop signal before
// killing the process.
const DefaultGrace = 5 * time.Second

const lineBuffer = 64

// ErrNotStarted is returned (wrapped) when a process could not be launched.
var ErrNotStarted = errors.New("process not started")

// Runner launches external commands.
type Runner interface {
	// Launch starts name with args and streams its stderr.
	Launch(ctx context.Context, name string, args ...string) (Process, error)
	// Output runs name to completion and returns its stdout.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Process is a handle to a launched command.
type Process interface {
	// Lines yields stderr lines and is closed when the stream ends.
	Lines() <-chan string
	// Wait blocks until the process has exited and returns its exit error.
	// Unread lines are discarded once Wait is called.
	Wait() error
	// Terminate stops the process. Safe to call repeatedly and after exit.
	Terminate()
	// Pid returns the OS process id.
	Pid() int
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Grace is the delay between the stop signal and the kill. Zero means
	// DefaultGrace.
	Grace time.Duration
}

// New returns an ExecRunner with the given termination grace period.
func New(grace time.Duration) *ExecRunner {
	return &ExecRunner{Grace: grace}
}

func (r *ExecRunner) grace() time.Duration {
	if r == nil || r.Grace <= 0 {
		return DefaultGrace
	}
	return r.Grace
}

// Launch starts the command. Cancelling ctx terminates the process the same
// way Terminate does.
func (r *ExecRunner) Launch(ctx context.Context, name string, args ...string) (Process, error) {
	cmd := exec.Command(name, args...)
	configure(cmd)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: setup stderr pipe: %w", ErrNotStarted, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start %s: %w", ErrNotStarted, name, err)
	}

	p := &execProcess{
		cmd:     cmd,
		grace:   r.grace(),
		lines:   make(chan string, lineBuffer),
		discard: make(chan struct{}),
		exited:  make(chan struct{}),
	}

	go func() {
		scanner := bufio.NewScanner(stderr)
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 1024*1024)
		scanner.Split(splitByNewlineOrCR)
		for scanner.Scan() {
			select {
			case p.lines <- scanner.Text():
			case <-p.discard:
			}
		}
		close(p.lines)
		p.waitErr = cmd.Wait()
		close(p.exited)
	}()

	go func() {
		select {
		case <-ctx.Done():
			p.Terminate()
		case <-p.exited:
		}
	}()

	return p, nil
}

// Output runs the command to completion, bounded by ctx.
func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	configure(cmd)
	cmd.WaitDelay = r.grace()
	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out, fmt.Errorf("%s: %w", name, ctxErr)
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

type execProcess struct {
	cmd   *exec.Cmd
	grace time.Duration

	lines       chan string
	discard     chan struct{}
	discardOnce sync.Once

	exited  chan struct{}
	waitErr error

	termOnce sync.Once
}

func (p *execProcess) Lines() <-chan string { return p.lines }

func (p *execProcess) Wait() error {
	p.discardOnce.Do(func() { close(p.discard) })
	<-p.exited
	return p.waitErr
}

func (p *execProcess) Terminate() {
	select {
	case <-p.exited:
		return
	default:
	}
	p.termOnce.Do(func() {
		_ = interrupt(p.cmd.Process)
		go func() {
			t := time.NewTimer(p.grace)
			defer t.Stop()
			select {
			case <-p.exited:
			case <-t.C:
				_ = p.cmd.Process.Kill()
			}
		}()
	})
}

func (p *execProcess) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// splitByNewlineOrCR is a bufio.SplitFunc that breaks on '\n' or '\r'.
// ffmpeg rewrites its status line with '\r', so a plain line scanner would
// only see progress once the encode finishes.
// Empty lines are skipped inside the split so no nil token is returned
// while data remains; the scanner stops on a nil token after EOF.
func splitByNewlineOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) && (data[start] == '\n' || data[start] == '\r') {
		start++
	}
	for i := start; i < len(data); i++ {
		if data[i] == '\n' || data[i] == '\r' {
			return i + 1, data[start:i], nil
		}
	}
	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}
