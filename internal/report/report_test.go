package report

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/backmassage/vidpress/internal/config"
	"github.com/backmassage/vidpress/internal/locale"
	"github.com/backmassage/vidpress/internal/pipeline"
	"github.com/backmassage/vidpress/internal/term"
)

type recLogger struct{ lines []string }

func (r *recLogger) add(level, f string, a ...interface{}) {
	r.lines = append(r.lines, level+" "+fmt.Sprintf(f, a...))
}
func (r *recLogger) Info(f string, a ...interface{})    { r.add("INFO", f, a...) }
func (r *recLogger) Success(f string, a ...interface{}) { r.add("SUCCESS", f, a...) }
func (r *recLogger) Warn(f string, a ...interface{})    { r.add("WARN", f, a...) }
func (r *recLogger) Error(f string, a ...interface{})   { r.add("ERROR", f, a...) }

const mib = 1024 * 1024

func TestConsume(t *testing.T) {
	files := []pipeline.SourceFile{
		{Path: "/v/a.mp4", Name: "a.mp4", Size: 100 * mib},
		{Path: "/v/b.mp4", Name: "b.mp4", Size: 50 * mib},
	}
	want := pipeline.BatchResult{Completed: 1, Failed: 1, Total: 2, TotalInputBytes: 150 * mib, TotalOutputBytes: 40 * mib}
	evs := []pipeline.Event{
		{Kind: pipeline.EventProgress, FileIndex: 0, Status: pipeline.StatusPreparing},
		{Kind: pipeline.EventProgress, FileIndex: 0, Percent: 10, Status: pipeline.StatusCompressing},
		{Kind: pipeline.EventProgress, FileIndex: 0, Percent: 26, Status: pipeline.StatusCompressing},
		{Kind: pipeline.EventProgress, FileIndex: 0, Percent: 30, Status: pipeline.StatusCompressing},
		{Kind: pipeline.EventProgress, FileIndex: 0, Percent: 99, Status: pipeline.StatusCompressing},
		{Kind: pipeline.EventFileDone, FileIndex: 0, Success: true, OutputBytes: 40 * mib, OutputPath: "/v/a_compressed.mp4", Status: pipeline.StatusDone},
		{Kind: pipeline.EventError, FileIndex: 1, Stage: pipeline.StageLaunch, Message: "launch /v/b.mp4: not found"},
		{Kind: pipeline.EventFileDone, FileIndex: 1, Status: pipeline.StatusFailed, Reason: "process not started"},
		{Kind: pipeline.EventBatchDone, FileIndex: -1, Result: &want},
	}
	ch := make(chan pipeline.Event, len(evs))
	for _, ev := range evs {
		ch <- ev
	}
	close(ch)

	log := &recLogger{}
	got, ok := Consume(ch, files, locale.New(locale.English), log)
	if !ok || got != want {
		t.Fatalf("Consume() = %+v, %v; want %+v", got, ok, want)
	}

	wantLines := []string{
		"INFO [1/2] a.mp4: Preparing...",
		"INFO [1/2] a.mp4: Compressing 25%",
		"INFO [1/2] a.mp4: Compressing 75%",
		"SUCCESS [1/2] /v/a_compressed.mp4 -> 40.0 MiB (-60%)",
		"WARN [2/2] launch /v/b.mp4: not found",
		"ERROR [2/2] b.mp4: Failed: process not started",
	}
	if strings.Join(log.lines, "\n") != strings.Join(wantLines, "\n") {
		t.Errorf("lines:\n%s\nwant:\n%s", strings.Join(log.lines, "\n"), strings.Join(wantLines, "\n"))
	}
}

func TestConsume_NoBatchDone(t *testing.T) {
	ch := make(chan pipeline.Event)
	close(ch)
	if _, ok := Consume(ch, nil, locale.New(locale.English), &recLogger{}); ok {
		t.Error("ok should be false without batch_done")
	}
}

func TestSummary(t *testing.T) {
	term.Configure(config.ColorNever)
	tests := []struct {
		name string
		res  pipeline.BatchResult
		want []string
	}{
		{
			"saved",
			pipeline.BatchResult{Completed: 2, Total: 2, TotalInputBytes: 150 * mib, TotalOutputBytes: 60 * mib},
			[]string{"Compression Complete", "Processed:", "2/2 files", "150.0 MiB", "Saved:", "-90.0 MiB (60%)"},
		},
		{
			"grew",
			pipeline.BatchResult{Completed: 1, Total: 1, TotalInputBytes: 100 * mib, TotalOutputBytes: 105 * mib},
			[]string{"Increased:", "+5.0 MiB (5%)"},
		},
		{
			"stopped",
			pipeline.BatchResult{Completed: 1, Total: 3, Stopped: true},
			[]string{"Stopped", "1/3 files", "-0 B (0%)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Summary(&buf, tt.res, locale.New(locale.English))
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("summary missing %q:\n%s", w, buf.String())
				}
			}
		})
	}
}

func TestSummary_Chinese(t *testing.T) {
	term.Configure(config.ColorNever)
	var buf bytes.Buffer
	Summary(&buf, pipeline.BatchResult{Completed: 1, Total: 2, TotalInputBytes: 10, TotalOutputBytes: 5}, locale.New(locale.Chinese))
	for _, w := range []string{"压缩完成", "1/2 个文件", "节省空间:"} {
		if !strings.Contains(buf.String(), w) {
			t.Errorf("summary missing %q:\n%s", w, buf.String())
		}
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		res  pipeline.BatchResult
		want int
	}{
		{pipeline.BatchResult{Completed: 2, Total: 2}, ExitOK},
		{pipeline.BatchResult{Completed: 1, Failed: 1, Total: 2}, ExitFailed},
		{pipeline.BatchResult{Completed: 1, Failed: 1, Total: 3, Stopped: true}, ExitStopped},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.res); got != tt.want {
			t.Errorf("ExitCode(%+v) = %d, want %d", tt.res, got, tt.want)
		}
	}
}
