package ffmpeg

import "regexp"

// Pre-compiled patterns for turning the tail of ffmpeg's stderr into a short
// failure reason. Checked in order; the first match wins.
var failureReasons = []struct {
	re     *regexp.Regexp
	reason string
}{
	{regexp.MustCompile(`(?i)Unknown encoder|Encoder not found`), "encoder not available"},
	{regexp.MustCompile(`(?i)Cannot load|Could not open encode device|No capable devices found|Error while opening encoder`), "hardware encoder failed to initialize"},
	{regexp.MustCompile(`(?i)No such file or directory`), "file not found"},
	{regexp.MustCompile(`(?i)Permission denied`), "permission denied"},
	{regexp.MustCompile(`(?i)Invalid data found when processing input|moov atom not found`), "input is not a readable video"},
	{regexp.MustCompile(`(?i)No space left on device`), "disk full"},
	{regexp.MustCompile(`(?i)Invalid argument`), "invalid argument"},
	{regexp.MustCompile(`(?i)Conversion failed`), "conversion failed"},
}

// TailSize is how many trailing stderr lines callers keep for Classify.
const TailSize = 20

// Classify returns a short reason for a failed encode from the last lines
// of stderr, or "" when nothing recognizable was printed.
func Classify(tail []string) string {
	for _, fr := range failureReasons {
		for i := len(tail) - 1; i >= 0; i-- {
			if fr.re.MatchString(tail[i]) {
				return fr.reason
			}
		}
	}
	return ""
}

// Tail keeps the last n lines appended to it.
type Tail struct {
	n     int
	lines []string
}

// NewTail returns a Tail holding at most n lines.
func NewTail(n int) *Tail {
	return &Tail{n: n}
}

// Add appends a line, dropping the oldest when full.
func (t *Tail) Add(line string) {
	if t.n <= 0 {
		return
	}
	if len(t.lines) == t.n {
		copy(t.lines, t.lines[1:])
		t.lines = t.lines[:t.n-1]
	}
	t.lines = append(t.lines, line)
}

// Lines returns the retained lines, oldest first.
func (t *Tail) Lines() []string {
	return t.lines
}
