package ffmpeg

import (
	"math"
	"regexp"
	"strconv"
)

// MaxRunningPercent is the ceiling for progress while the engine is still
// running; 100 is reserved for a verified successful exit.
const MaxRunningPercent = 99

var reProgressTime = regexp.MustCompile(`time=(\d+):(\d+):(\d+(?:\.\d+)?)`)

// ParseProgressTime extracts the elapsed encode position in seconds from a
// stderr line. ok is false for lines without a timestamp (including
// "time=N/A").
func ParseProgressTime(line string) (seconds float64, ok bool) {
	m := reProgressTime.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	h, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	mm, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, false
	}
	s, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, false
	}
	return float64(h)*3600 + float64(mm)*60 + s, true
}

// Percent converts an elapsed position to a whole percentage of duration,
// floored and capped at MaxRunningPercent. A non-positive duration yields 0.
func Percent(elapsed, duration float64) int {
	if duration <= 0 || elapsed <= 0 {
		return 0
	}
	p := int(math.Floor(elapsed / duration * 100))
	if p > MaxRunningPercent {
		return MaxRunningPercent
	}
	return p
}

// Tracker turns a stream of stderr lines into non-decreasing percentages
// for one file.
type Tracker struct {
	duration float64
	last     int
}

// NewTracker returns a tracker for a source of the given duration in
// seconds (0 if unknown).
func NewTracker(duration float64) *Tracker {
	return &Tracker{duration: duration}
}

// Observe parses line and reports the current percentage. ok is false when
// the line carries no timestamp.
func (t *Tracker) Observe(line string) (percent int, ok bool) {
	elapsed, ok := ParseProgressTime(line)
	if !ok {
		return t.last, false
	}
	if p := Percent(elapsed, t.duration); p > t.last {
		t.last = p
	}
	return t.last, true
}
