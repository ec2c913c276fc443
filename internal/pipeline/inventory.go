package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/backmassage/vidpress/internal/display"
	"github.com/backmassage/vidpress/internal/probe"
	"github.com/backmassage/vidpress/internal/term"
)

// InventoryLogger is the logging needed by Inventory.
type InventoryLogger interface {
	Info(string, ...interface{})
	Warn(string, ...interface{})
}

// inventoryRow holds the per-file data for the listing table.
type inventoryRow struct {
	Name     string
	Size     int64
	Duration float64
}

// Inventory probes every file's duration concurrently and prints a
// File/Size/Duration table followed by totals. Probe failures show as "?".
func Inventory(ctx context.Context, files []SourceFile, in *probe.Inspector, workers int, w io.Writer, log InventoryLogger) {
	if len(files) == 0 {
		log.Warn("No video files found")
		return
	}
	log.Info("Inspecting %d files …", len(files))

	rows := make([]inventoryRow, len(files))
	paths := make([]string, len(files))
	for i, f := range files {
		rows[i] = inventoryRow{Name: f.Name, Size: f.Size}
		paths[i] = f.Path
	}
	for info := range in.InspectAll(ctx, paths, workers) {
		rows[info.Index].Duration = info.Duration
	}
	if ctx.Err() != nil {
		log.Warn("Interrupted")
		return
	}

	printInventoryTable(w, rows)

	var totalSize int64
	var totalDur float64
	unknown := 0
	for _, r := range rows {
		totalSize += r.Size
		totalDur += r.Duration
		if r.Duration <= 0 {
			unknown++
		}
	}
	log.Info("%d files, %s, %s total", len(rows), display.FormatBytes(totalSize), display.FormatDuration(totalDur))
	if unknown > 0 {
		log.Warn("%d file(s) with unknown duration (progress will stay at 0%% while encoding)", unknown)
	}
}

func printInventoryTable(w io.Writer, rows []inventoryRow) {
	nameW := len("File")
	sizeW := len("Size")
	durW := len("Duration")
	for _, r := range rows {
		if len(r.Name) > nameW {
			nameW = len(r.Name)
		}
		if n := len(display.FormatBytes(r.Size)); n > sizeW {
			sizeW = n
		}
		if n := len(fmtDuration(r.Duration)); n > durW {
			durW = n
		}
	}
	if nameW > 50 {
		nameW = 50
	}

	header := fmt.Sprintf("  %-*s  %*s  %*s", nameW, "File", sizeW, "Size", durW, "Duration")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, "  "+strings.Repeat("─", len(header)-2))

	for _, r := range rows {
		name := r.Name
		if len(name) > nameW {
			name = name[:nameW-1] + "…"
		}
		durCell := fmt.Sprintf("%*s", durW, fmtDuration(r.Duration))
		if r.Duration <= 0 {
			// Pad first, then color, so escape bytes do not count as width.
			durCell = term.Warn + durCell + term.Reset
		}
		fmt.Fprintf(w, "  %-*s  %*s  %s\n", nameW, name, sizeW, display.FormatBytes(r.Size), durCell)
	}
	fmt.Fprintln(w)
}

func fmtDuration(sec float64) string {
	if sec <= 0 {
		return "?"
	}
	return display.FormatDuration(sec)
}
