package pipeline

import "math"

// BatchResult aggregates the outcomes of one run. Input bytes count every
// file whose encode was attempted, including one abandoned by a stop;
// output bytes count successful files only.
type BatchResult struct {
	Completed        int   `json:"completed"`
	Failed           int   `json:"failed"`
	Total            int   `json:"total"`
	TotalInputBytes  int64 `json:"total_input_bytes"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
	Stopped          bool  `json:"stopped"`
}

// SpaceSaved returns the aggregate byte difference between inputs and outputs.
// Positive means outputs are smaller; negative means they grew.
func (s BatchResult) SpaceSaved() int64 {
	return s.TotalInputBytes - s.TotalOutputBytes
}

// SavedPercent returns |in-out|/in as a percentage, rounded; 0 when no
// input bytes were counted.
func (s BatchResult) SavedPercent() int {
	if s.TotalInputBytes <= 0 {
		return 0
	}
	diff := math.Abs(float64(s.SpaceSaved()))
	return int(math.Round(diff / float64(s.TotalInputBytes) * 100))
}
