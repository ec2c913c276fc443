package probe

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/backmassage/vidpress/internal/runner"
)

// Default timeouts: the encode loop can afford a long probe; display
// callers use the shorter one.
const (
	EncodeTimeout  = 30 * time.Second
	DisplayTimeout = 10 * time.Second
)

// DefaultWorkers bounds InspectAll concurrency.
const DefaultWorkers = 4

// Inspector runs ffprobe through a Runner.
type Inspector struct {
	Path    string // ffprobe binary.
	Runner  runner.Runner
	Timeout time.Duration
}

// NewInspector returns an inspector using the given ffprobe binary.
func NewInspector(path string, r runner.Runner, timeout time.Duration) *Inspector {
	if path == "" {
		path = "ffprobe"
	}
	if timeout <= 0 {
		timeout = EncodeTimeout
	}
	return &Inspector{Path: path, Runner: r, Timeout: timeout}
}

// Args returns the ffprobe arguments requesting only format=duration as a
// bare number.
func Args(file string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		file,
	}
}

// Probe returns the duration of file in seconds.
func (in *Inspector) Probe(ctx context.Context, file string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, in.Timeout)
	defer cancel()
	out, err := in.Runner.Output(ctx, in.Path, Args(file)...)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %q: %w", file, err)
	}
	return ParseDuration(out)
}

// Duration returns the duration of file in seconds, or 0 on any failure.
func (in *Inspector) Duration(ctx context.Context, file string) float64 {
	d, err := in.Probe(ctx, file)
	if err != nil {
		return 0
	}
	return d
}

// ParseDuration parses ffprobe's bare duration output. "N/A", negative,
// and non-finite values are rejected.
func ParseDuration(out []byte) (float64, error) {
	s := strings.TrimSpace(string(out))
	if first, _, ok := strings.Cut(s, "\n"); ok {
		s = strings.TrimSpace(first)
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, fmt.Errorf("parse duration %q: out of range", s)
	}
	return d, nil
}

// Info is the result of inspecting one file.
type Info struct {
	Index    int
	Path     string
	Duration float64 // 0 when unknown.
}

// InspectAll probes every path with up to workers concurrent ffprobe calls
// and delivers results as they complete, in no particular order. The
// channel is closed when all probes are done or ctx is cancelled.
func (in *Inspector) InspectAll(ctx context.Context, paths []string, workers int) <-chan Info {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	jobs := make(chan int)
	out := make(chan Info, len(paths))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out <- Info{Index: i, Path: paths[i], Duration: in.Duration(ctx, paths[i])}
			}
		}()
	}

	go func() {
		defer close(out)
		defer wg.Wait()
		defer close(jobs)
		for i := range paths {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
