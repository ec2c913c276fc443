package ffmpeg

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/backmassage/vidpress/internal/profile"
)

// Fixed audio settings: AAC at 128 kbit/s plays everywhere MP4 does.
const (
	AudioCodec   = "aac"
	AudioBitrate = "128k"
)

// BuildOptions is everything needed to construct one encode command.
type BuildOptions struct {
	Engine     string // ffmpeg binary; first element of the result.
	Input      string
	Output     string
	Profile    profile.Profile
	Quality    profile.Quality
	Speed      profile.Speed
	Resolution profile.Resolution
	Threads    int // 0 means Threads(runtime.NumCPU()).
}

// Build returns the full argv (engine first) for an encode:
//
//	engine -i IN -c:v CODEC QFLAG QVAL [-preset P] [-vf scale=-2:H]
//	       -threads N -c:a aac -b:a 128k -movflags +faststart -y OUT
func Build(o BuildOptions) []string {
	engine := o.Engine
	if engine == "" {
		engine = "ffmpeg"
	}
	threads := o.Threads
	if threads <= 0 {
		threads = Threads(runtime.NumCPU())
	}

	args := make([]string, 0, 24)
	args = append(args, engine, "-i", o.Input)

	// --- Video codec ---
	args = append(args,
		"-c:v", o.Profile.Codec,
		o.Profile.QualityFlag, o.Profile.QualityValue(o.Quality),
	)
	if o.Profile.HasPreset {
		args = append(args, "-preset", o.Profile.PresetValue(o.Speed))
	}

	// --- Scaling (width follows aspect, rounded to even) ---
	if h := o.Resolution.Height(); h > 0 {
		args = append(args, "-vf", ScaleFilter(h))
	}

	args = append(args, "-threads", strconv.Itoa(threads))

	// --- Audio ---
	args = append(args, "-c:a", AudioCodec, "-b:a", AudioBitrate)

	// --- Container ---
	args = append(args, "-movflags", "+faststart", "-y", o.Output)
	return args
}

// ScaleFilter returns the -vf value for a target height.
func ScaleFilter(height int) string {
	return fmt.Sprintf("scale=-2:%d", height)
}

// Threads returns the encoder thread count for a CPU count: half the
// logical CPUs, never fewer than two.
func Threads(cpus int) int {
	n := cpus / 2
	if n < 2 {
		return 2
	}
	return n
}
