// Package display formats sizes, ratios, and durations for terminal output
// and prints the startup banner.
package display

import (
	"fmt"
	"math"
)

// FormatBytes returns a human-readable size (B, KiB, MiB, GiB, TiB, PiB).
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	suffixes := []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}
	if exp >= len(suffixes) {
		exp = len(suffixes) - 1
		div = 1
		for i := 0; i <= exp; i++ {
			div *= unit
		}
	}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), suffixes[exp])
}

// FormatBytesWithSign prefixes with + or - for delta display (e.g. "- 1.2 GiB").
func FormatBytesWithSign(bytes int64) string {
	sign := ""
	if bytes > 0 {
		sign = "+ "
	} else if bytes < 0 {
		sign = "- "
		bytes = -bytes
	}
	return sign + FormatBytes(bytes)
}

// FormatRatio returns the signed size change from in to out as a rounded
// percentage: "-42%" when the output is smaller, "+5%" when larger, "0%"
// when equal or when in is not positive.
func FormatRatio(in, out int64) string {
	if in <= 0 {
		return "0%"
	}
	pct := int(math.Round(float64(out-in) / float64(in) * 100))
	switch {
	case pct > 0:
		return fmt.Sprintf("+%d%%", pct)
	case pct < 0:
		return fmt.Sprintf("%d%%", pct)
	default:
		return "0%"
	}
}

// FormatDuration renders seconds as "1:02:03" or "2:03" (fractions dropped).
func FormatDuration(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	total := int64(sec)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
