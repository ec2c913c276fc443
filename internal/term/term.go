// Package term holds the ANSI palette shared by the log and report output
// and decides whether the progress screen can take over the terminal.
//
// The palette is named by role, not by color. [Configure] fills it once at
// startup; with colors off every entry is "" so callers concatenate freely.
package term

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/backmassage/vidpress/internal/config"
)

// Palette entries. Empty when colors are disabled.
var (
	Info   = "" // INFO level tag.
	Ok     = "" // SUCCESS tag, space saved.
	Warn   = "" // WARN tag, size grew, unknown durations.
	Fail   = "" // ERROR tag.
	Debug  = "" // DEBUG tag.
	Accent = "" // Banner.
	Reset  = ""
)

// Configure resolves mode against the environment and fills the palette.
// Called from [logging.NewLogger].
func Configure(mode config.ColorMode) {
	if !resolve(mode, os.Stdout, os.Getenv) {
		Info, Ok, Warn, Fail, Debug, Accent, Reset = "", "", "", "", "", "", ""
		return
	}
	Info = "\033[1;94m"
	Ok = "\033[1;92m"
	Warn = "\033[1;93m"
	Fail = "\033[1;91m"
	Debug = "\033[1;96m"
	Accent = "\033[1;95m"
	Reset = "\033[0m"
}

// Enabled reports whether the palette is active.
func Enabled() bool { return Reset != "" }

// resolve applies ColorAuto: colors only on a terminal, honoring NO_COLOR
// (https://no-color.org) and TERM=dumb.
func resolve(mode config.ColorMode, out *os.File, getenv func(string) string) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	return IsTerminal(out) && getenv("NO_COLOR") == "" && !dumb(getenv)
}

func dumb(getenv func(string) string) bool {
	return strings.EqualFold(getenv("TERM"), "dumb")
}

// IsTerminal reports whether f is a terminal, including Cygwin/MSYS ptys.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Interactive reports whether the progress screen can run: stdin for the
// stop keys and stdout for drawing must both be terminals.
func Interactive() bool {
	return IsTerminal(os.Stdin) && IsTerminal(os.Stdout) && !dumb(os.Getenv)
}
