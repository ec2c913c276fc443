package runner

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "tool.sh")
	script := "#!/usr/bin/env bash\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func collect(p Process) []string {
	var lines []string
	for line := range p.Lines() {
		lines = append(lines, line)
	}
	return lines
}

func TestSplitByNewlineOrCR(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"progress rewrites then lines", "frame=1 time=00:00:01.00\rframe=2 time=00:00:02.00\r\nDone\n\nlast",
			[]string{"frame=1 time=00:00:01.00", "frame=2 time=00:00:02.00", "Done", "last"}},
		{"crlf before final line", "a\r\nb", []string{"a", "b"}},
		{"blank line before final line", "Done\n\nlast", []string{"Done", "last"}},
		{"leading delimiters", "\r\n\nfirst\n", []string{"first"}},
		{"trailing crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"only delimiters", "\r\n\r\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := bufio.NewScanner(strings.NewReader(tt.in))
			scanner.Split(splitByNewlineOrCR)
			var got []string
			for scanner.Scan() {
				got = append(got, scanner.Text())
			}
			if err := scanner.Err(); err != nil {
				t.Fatalf("scan: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("tokens = %q, want %q", got, tt.want)
			}
		})
	}
}

// Final stderr lines after a blank line reach the reader.
func TestLaunch_KeepsLinesAfterBlankLine(t *testing.T) {
	script := writeScript(t, `printf 'frame=1\r\nError opening output\n\nConversion failed!' >&2
exit 1`)
	p, err := New(time.Second).Launch(context.Background(), script)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	got := collect(p)
	_ = p.Wait()
	want := []string{"frame=1", "Error opening output", "Conversion failed!"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("lines = %q, want %q", got, want)
	}
}

func TestLaunch_StreamsStderrLines(t *testing.T) {
	script := writeScript(t, `printf 'ignored on stdout\n'
printf 'a\rb\nc\n' >&2
exit 0`)
	p, err := New(time.Second).Launch(context.Background(), script)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	got := collect(p)
	if err := p.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("lines = %q, want %q", got, want)
	}
	if p.Pid() <= 0 {
		t.Errorf("Pid() = %d", p.Pid())
	}
}

func TestLaunch_NonZeroExit(t *testing.T) {
	script := writeScript(t, `echo "Conversion failed!" >&2; exit 3`)
	p, err := New(time.Second).Launch(context.Background(), script)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	collect(p)
	if err := p.Wait(); err == nil {
		t.Fatal("Wait() = nil, want exit error")
	}
	// Terminate after exit is a no-op.
	p.Terminate()
	p.Terminate()
}

func TestLaunch_MissingBinary(t *testing.T) {
	_, err := New(time.Second).Launch(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrNotStarted) {
		t.Fatalf("Launch error = %v, want ErrNotStarted", err)
	}
}

func TestTerminate_StopsRunningProcess(t *testing.T) {
	script := writeScript(t, `echo started >&2; exec sleep 30`)
	p, err := New(time.Second).Launch(context.Background(), script)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if line := <-p.Lines(); line != "started" {
		t.Fatalf("first line = %q", line)
	}
	start := time.Now()
	p.Terminate()
	p.Terminate()
	if err := p.Wait(); err == nil {
		t.Error("Wait() = nil after terminate, want signal error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("terminate took %v", elapsed)
	}
}

func TestTerminate_EscalatesToKill(t *testing.T) {
	script := writeScript(t, `trap '' TERM; echo started >&2; exec sleep 30`)
	p, err := New(100 * time.Millisecond).Launch(context.Background(), script)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	<-p.Lines()
	p.Terminate()
	done := make(chan error, 1)
	go func() { done <- p.Wait() }()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("process survived terminate escalation")
	}
}

func TestLaunch_ContextCancelTerminates(t *testing.T) {
	script := writeScript(t, `echo started >&2; exec sleep 30`)
	ctx, cancel := context.WithCancel(context.Background())
	p, err := New(time.Second).Launch(ctx, script)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	<-p.Lines()
	cancel()
	done := make(chan struct{})
	go func() {
		_ = p.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("context cancel did not stop the process")
	}
}

func TestOutput(t *testing.T) {
	script := writeScript(t, `echo " V..... libx264   H.264"; echo banner >&2`)
	out, err := New(time.Second).Output(context.Background(), script, "-encoders")
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if !strings.Contains(string(out), "libx264") || strings.Contains(string(out), "banner") {
		t.Errorf("Output = %q", out)
	}
}

func TestOutput_Timeout(t *testing.T) {
	script := writeScript(t, `exec sleep 30`)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := New(time.Second).Output(ctx, script)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Output error = %v, want deadline exceeded", err)
	}
}
