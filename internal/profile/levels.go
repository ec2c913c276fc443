package profile

import (
	"fmt"
	"strings"
)

// Quality is the user-facing quality level.
type Quality int

const (
	QualityHigh     Quality = iota // Visually lossless-ish, larger output.
	QualityBalanced                // Default.
	QualitySmall                   // Smallest output.
)

// Qualities lists every level the CLI can present, in display order.
var Qualities = []Quality{QualityHigh, QualityBalanced, QualitySmall}

func (q Quality) String() string {
	switch q {
	case QualityHigh:
		return "high"
	case QualityBalanced:
		return "balanced"
	case QualitySmall:
		return "small"
	default:
		return fmt.Sprintf("quality(%d)", int(q))
	}
}

// ParseQuality accepts the canonical names plus a few aliases
// ("high_quality", "small_size", "medium").
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "high_quality", "hq":
		return QualityHigh, nil
	case "balanced", "medium", "default":
		return QualityBalanced, nil
	case "small", "small_size", "compact":
		return QualitySmall, nil
	default:
		return QualityBalanced, fmt.Errorf("invalid quality %q (use 'high', 'balanced' or 'small')", s)
	}
}

// Speed is the user-facing encode speed level. Only profiles with preset
// support honor it.
type Speed int

const (
	SpeedFast     Speed = iota // Fastest encode, larger output.
	SpeedBalanced              // Default.
	SpeedSlow                  // Best compression per bit.
)

// Speeds lists every speed level, in display order.
var Speeds = []Speed{SpeedFast, SpeedBalanced, SpeedSlow}

func (s Speed) String() string {
	switch s {
	case SpeedFast:
		return "fast"
	case SpeedBalanced:
		return "balanced"
	case SpeedSlow:
		return "slow"
	default:
		return fmt.Sprintf("speed(%d)", int(s))
	}
}

// ParseSpeed accepts the canonical names plus "high_compress" for slow.
func ParseSpeed(s string) (Speed, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fast":
		return SpeedFast, nil
	case "balanced", "medium", "default":
		return SpeedBalanced, nil
	case "slow", "high_compress":
		return SpeedSlow, nil
	default:
		return SpeedBalanced, fmt.Errorf("invalid speed %q (use 'fast', 'balanced' or 'slow')", s)
	}
}

// Resolution is the target output height. ResolutionOriginal keeps the
// source dimensions.
type Resolution int

const (
	ResolutionOriginal Resolution = 0
	Resolution1080p    Resolution = 1080
	Resolution720p     Resolution = 720
	Resolution480p     Resolution = 480
)

// Resolutions lists every supported target, in display order.
var Resolutions = []Resolution{ResolutionOriginal, Resolution1080p, Resolution720p, Resolution480p}

// Height returns the target frame height, or 0 for the original size.
func (r Resolution) Height() int { return int(r) }

func (r Resolution) String() string {
	if r == ResolutionOriginal {
		return "original"
	}
	return fmt.Sprintf("%dp", int(r))
}

// ParseResolution accepts "original" (or "keep"), "1080p", "720p", "480p",
// with or without the trailing "p".
func ParseResolution(s string) (Resolution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "original", "keep", "keep_original", "source":
		return ResolutionOriginal, nil
	case "1080p", "1080":
		return Resolution1080p, nil
	case "720p", "720":
		return Resolution720p, nil
	case "480p", "480":
		return Resolution480p, nil
	default:
		return ResolutionOriginal, fmt.Errorf("invalid resolution %q (use 'original', '1080p', '720p' or '480p')", s)
	}
}
