package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/backmassage/vidpress/internal/config"
)

func newTestLogger(t *testing.T, cfg *config.Config) (*Logger, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	cfg.ColorMode = config.ColorNever
	l, err := NewLogger(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })
	var out, errOut bytes.Buffer
	l.SetOutput(&out, &errOut)
	return l, &out, &errOut
}

func TestNewLogger_NoFile(t *testing.T) {
	cfg := config.DefaultConfig()
	l, out, _ := newTestLogger(t, &cfg)
	l.Info("test message %d", 1)
	if !strings.Contains(out.String(), "[INFO] test message 1") {
		t.Errorf("stdout = %q", out.String())
	}
	if l.FilePath() != "" {
		t.Errorf("FilePath() = %q, want empty", l.FilePath())
	}
}

func TestNewLogger_WithFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.LogFile = filepath.Join(dir, "logs", "vidpress.log")
	l, _, _ := newTestLogger(t, &cfg)
	l.Info("to file")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(cfg.LogFile)
	if !bytes.Contains(b, []byte("INFO")) || !bytes.Contains(b, []byte("to file")) {
		t.Errorf("log file content: %s", string(b))
	}
}

func TestLogger_Levels(t *testing.T) {
	cfg := config.DefaultConfig()
	l, out, errOut := newTestLogger(t, &cfg)

	l.Success("ok")
	l.Warn("careful")
	l.Error("broken")
	l.Debug(false, "hidden")
	l.Debug(true, "shown")

	for _, want := range []string{"[SUCCESS] ok", "[WARN] careful", "[DEBUG] shown"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("stdout missing %q: %q", want, out.String())
		}
	}
	if strings.Contains(out.String(), "hidden") {
		t.Error("Debug(false) should not log")
	}
	if !strings.Contains(errOut.String(), "[ERROR] broken") || strings.Contains(out.String(), "broken") {
		t.Errorf("ERROR should go to stderr only; stderr=%q", errOut.String())
	}
}

func TestLogger_MuteKeepsFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogFile = filepath.Join(t.TempDir(), "vidpress.log")
	l, out, _ := newTestLogger(t, &cfg)

	l.Mute(true)
	l.Warn("while muted")
	l.Mute(false)
	l.Info("after")

	if strings.Contains(out.String(), "while muted") {
		t.Error("muted line reached the console")
	}
	l.Close()
	b, _ := os.ReadFile(cfg.LogFile)
	if !bytes.Contains(b, []byte("while muted")) || !bytes.Contains(b, []byte("after")) {
		t.Errorf("log file content: %s", string(b))
	}
}
