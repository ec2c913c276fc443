// Package config holds runtime configuration: defaults, persisted
// preferences, environment overrides, CLI flag parsing, and validation.
//
// Layering, lowest precedence first: DefaultConfig, Prefs (JSON file),
// environment (after an optional .env), then flags.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/backmassage/vidpress/internal/profile"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Supported interface languages. Empty means detect from the system locale.
const (
	LangEnglish = "en"
	LangChinese = "zh"
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// then [ApplyPrefs], [ApplyEnv], and [ParseFlags], before being passed (by
// pointer) to packages that need it.
type Config struct {
	// Inputs (positional args): files and/or directories.
	Inputs    []string
	OutputDir string // Empty: write next to each source.

	// Encode settings.
	Encoder    profile.ID // Empty: platform-preferred usable profile.
	Quality    profile.Quality
	Speed      profile.Speed
	SpeedSet   bool // Speed was requested explicitly (flag or env).
	Resolution profile.Resolution

	// External tools.
	FFmpegPath     string        // Default: "ffmpeg" (PATH lookup).
	FFprobePath    string        // Empty: derived from FFmpegPath.
	ProbeTimeout   time.Duration // Encoder listing. Default: 10s.
	InspectTimeout time.Duration // Duration probe. Default: 30s.
	TerminateGrace time.Duration // Stop signal to kill. Default: 5s.
	InspectWorkers int           // Concurrent duration probes. Default: 4.

	// Language and preferences.
	Language  string // "", "en", or "zh".
	SavePrefs bool
	PrefsPath string // Default: <user config dir>/vidpress/prefs.json.

	// Remote status (optional).
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string // Default: "vidpress:".

	// Display and logging.
	Plain        bool // Line-oriented output instead of the interactive screen.
	Verbose      bool
	ColorMode    ColorMode // Default: "auto".
	LogFile      string    // Optional log file path.
	CheckOnly    bool      // Run --check diagnostics and exit.
	ListEncoders bool      // Print usable profiles and exit.
	ListFiles    bool      // Print the working set with durations and exit.
}

// DefaultConfig returns a Config with all defaults. Used as the base before
// preferences, environment, and flags are applied.
func DefaultConfig() Config {
	return Config{
		Quality:        profile.QualityBalanced,
		Speed:          profile.SpeedBalanced,
		Resolution:     profile.ResolutionOriginal,
		FFmpegPath:     "ffmpeg",
		ProbeTimeout:   10 * time.Second,
		InspectTimeout: 30 * time.Second,
		TerminateGrace: 5 * time.Second,
		InspectWorkers: 4,
		PrefsPath:      DefaultPrefsPath(),
		RedisPrefix:    "vidpress:",
		ColorMode:      ColorAuto,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// ProbePath returns the ffprobe binary to use: FFprobePath when set,
// otherwise the ffprobe sibling of an explicit FFmpegPath, otherwise
// "ffprobe" from PATH.
func (c *Config) ProbePath() string {
	if c.FFprobePath != "" {
		return c.FFprobePath
	}
	return siblingProbe(c.FFmpegPath, runtime.GOOS)
}

func siblingProbe(ffmpegPath, goos string) string {
	name := "ffprobe"
	if goos == "windows" {
		name += ".exe"
	}
	dir := filepath.Dir(ffmpegPath)
	if ffmpegPath == "" || dir == "." {
		return "ffprobe"
	}
	return filepath.Join(dir, name)
}

// NeedsInputs reports whether the selected mode requires positional inputs.
func (c *Config) NeedsInputs() bool {
	return !c.CheckOnly && !c.ListEncoders
}

// Validate checks enum-like fields and ranges. When not in a diagnostic
// mode, it also requires at least one input.
func (c *Config) Validate() error {
	switch c.Language {
	case "", LangEnglish, LangChinese:
		// valid
	default:
		return fmt.Errorf("invalid language %q (use 'en' or 'zh')", c.Language)
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return fmt.Errorf("invalid color mode %q", c.ColorMode)
	}

	if c.FFmpegPath == "" {
		return errors.New("ffmpeg path must not be empty")
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("invalid redis db %d", c.RedisDB)
	}
	if c.ProbeTimeout <= 0 || c.InspectTimeout <= 0 || c.TerminateGrace <= 0 {
		return errors.New("timeouts must be positive")
	}
	if c.InspectWorkers <= 0 {
		return errors.New("inspect workers must be positive")
	}

	if !c.NeedsInputs() {
		return nil
	}
	if len(c.Inputs) == 0 {
		return errors.New("need at least one input file or directory")
	}
	return nil
}
