// Package report is the non-interactive event consumer: it turns a run's
// events into log lines and prints the final summary.
package report

import (
	"fmt"
	"io"

	"github.com/backmassage/vidpress/internal/display"
	"github.com/backmassage/vidpress/internal/locale"
	"github.com/backmassage/vidpress/internal/pipeline"
	"github.com/backmassage/vidpress/internal/term"
)

// Exit codes returned by ExitCode.
const (
	ExitOK      = 0
	ExitFailed  = 1
	ExitStopped = 130
)

// Logger is the logging needed by Consume.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// progressStep is the granularity of running progress lines.
const progressStep = 25

// Consume reads events until the channel closes and returns the batch
// result carried by batch_done. ok is false when the channel closed
// without one.
func Consume(events <-chan pipeline.Event, files []pipeline.SourceFile, cat *locale.Catalog, log Logger) (res pipeline.BatchResult, ok bool) {
	total := len(files)
	lastStep := make([]int, total)
	name := func(i int) string {
		if i >= 0 && i < total {
			return files[i].Name
		}
		return "?"
	}

	for ev := range events {
		i := ev.FileIndex
		switch ev.Kind {
		case pipeline.EventProgress:
			if i < 0 || i >= total {
				continue
			}
			if ev.Status == pipeline.StatusPreparing {
				log.Info("[%d/%d] %s: %s", i+1, total, name(i), cat.Status(ev.Status))
				continue
			}
			if step := ev.Percent / progressStep * progressStep; step > lastStep[i] {
				lastStep[i] = step
				log.Info("[%d/%d] %s: %s %d%%", i+1, total, name(i), cat.Status(ev.Status), step)
			}
		case pipeline.EventFileDone:
			if ev.Success {
				in := int64(0)
				if i >= 0 && i < total {
					in = files[i].Size
				}
				log.Success("[%d/%d] %s -> %s (%s)", i+1, total, ev.OutputPath,
					display.FormatBytes(ev.OutputBytes), display.FormatRatio(in, ev.OutputBytes))
			} else {
				log.Error("[%d/%d] %s: %s: %s", i+1, total, name(i), cat.Status(ev.Status), ev.Reason)
			}
		case pipeline.EventError:
			log.Warn("[%d/%d] %s", i+1, total, ev.Message)
		case pipeline.EventBatchDone:
			if ev.Result != nil {
				res, ok = *ev.Result, true
			}
		}
	}
	return res, ok
}

// Summary writes the end-of-batch summary: files processed, original and
// compressed sizes, and the space saved or size increase.
func Summary(w io.Writer, res pipeline.BatchResult, cat *locale.Catalog) {
	title := cat.T(locale.KeyCompressDone)
	color := term.Ok
	if res.Stopped {
		title = cat.T(locale.KeyStopped)
		color = term.Warn
	} else if res.Failed > 0 {
		color = term.Warn
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, color+title+term.Reset)
	row := func(label, value string) {
		fmt.Fprintf(w, "  %-14s %s\n", label, value)
	}
	row(cat.T(locale.KeyFilesProcessed), cat.T(locale.KeyFilesUnit, res.Completed, res.Total))
	row(cat.T(locale.KeyOriginalSize), display.FormatBytes(res.TotalInputBytes))
	row(cat.T(locale.KeyCompressedSize), display.FormatBytes(res.TotalOutputBytes))

	saved := res.SpaceSaved()
	pct := res.SavedPercent()
	if saved >= 0 {
		row(cat.T(locale.KeySpaceSaved), fmt.Sprintf("%s-%s (%d%%)%s", term.Ok, display.FormatBytes(saved), pct, term.Reset))
	} else {
		row(cat.T(locale.KeySizeIncreased), fmt.Sprintf("%s+%s (%d%%)%s", term.Warn, display.FormatBytes(-saved), pct, term.Reset))
	}
}

// ExitCode maps a result to the process exit status.
func ExitCode(res pipeline.BatchResult) int {
	switch {
	case res.Stopped:
		return ExitStopped
	case res.Failed > 0:
		return ExitFailed
	default:
		return ExitOK
	}
}
