package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into encoding, output, tools, display, and utility.
// Negated flags (e.g. --no-color) are applied after Parse so earlier layers hold unless set.

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/backmassage/vidpress/internal/profile"
)

// ErrHelp is returned by ParseFlags after --help or --version output has
// been printed. Callers exit 0.
var ErrHelp = errors.New("help requested")

// ParseFlags parses args (without the program name) into cfg. version is
// shown by --version and in the help text. On --help or --version it prints
// and returns ErrHelp. On error it returns non-nil (e.g. unknown flag,
// invalid enum value).
func ParseFlags(cfg *Config, version string, args []string) error {
	return parseFlags(cfg, version, args, os.Stdout, os.Stderr)
}

func parseFlags(cfg *Config, version string, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("vidpress", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr, version) }

	// Negated/override flags: we capture bools then apply to cfg after Parse,
	// so that values from earlier layers hold unless the user passes the flag.
	var negated negatedFlags

	defineEncodingFlags(fs, cfg, &negated)
	defineOutputFlags(fs, cfg)
	defineToolFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &negated)
	defineUtilityFlags(fs, cfg, &negated)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ErrHelp
		}
		return err
	}

	applyNegatedFlags(cfg, &negated)

	if negated.showHelp {
		printUsage(stderr, version)
		return ErrHelp
	}
	if negated.showVersion {
		fmt.Fprintln(stdout, "vidpress v"+version)
		return ErrHelp
	}

	parsePositionalArgs(fs, cfg)
	return nil
}

// negatedFlags holds boolean flags that are applied after Parse.
// These either override another layer (noColor -> ColorNever) or trigger exit (showHelp, showVersion).
type negatedFlags struct {
	speedSet    bool
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// defineEncodingFlags registers -e/--encoder, -q/--quality, -s/--speed, -r/--resolution.
func defineEncodingFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.Var(&encoderValue{&cfg.Encoder}, "encoder", "Encoder profile id (see --list-encoders)")
	fs.Var(&encoderValue{&cfg.Encoder}, "e", "Same as --encoder")
	fs.Var(&qualityValue{&cfg.Quality}, "quality", "Quality: high | balanced | small")
	fs.Var(&qualityValue{&cfg.Quality}, "q", "Same as --quality")
	fs.Var(&speedValue{p: &cfg.Speed, set: &n.speedSet}, "speed", "Speed: fast | balanced | slow")
	fs.Var(&speedValue{p: &cfg.Speed, set: &n.speedSet}, "s", "Same as --speed")
	fs.Var(&resolutionValue{&cfg.Resolution}, "resolution", "Resolution: original | 1080p | 720p | 480p")
	fs.Var(&resolutionValue{&cfg.Resolution}, "r", "Same as --resolution")
}

// defineOutputFlags registers -o/--output.
func defineOutputFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.OutputDir, "output", cfg.OutputDir, "Output directory (default: next to each source)")
	fs.StringVar(&cfg.OutputDir, "o", cfg.OutputDir, "Same as --output")
}

// defineToolFlags registers --ffmpeg, --ffprobe, --redis, --lang, --save-prefs.
func defineToolFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.FFmpegPath, "ffmpeg", cfg.FFmpegPath, "Path to ffmpeg")
	fs.StringVar(&cfg.FFprobePath, "ffprobe", cfg.FFprobePath, "Path to ffprobe")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Publish run status to this Redis address")
	fs.StringVar(&cfg.Language, "lang", cfg.Language, "Interface language: en | zh")
	fs.BoolVar(&cfg.SavePrefs, "save-prefs", false, "Remember language and encode settings")
}

// defineDisplayFlags registers --plain, --color, --no-color, verbose, --log.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&cfg.Plain, "plain", cfg.Plain, "Line output instead of the interactive screen")
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Same as --verbose")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "Same as --log")
}

// defineUtilityFlags registers --check, --list-encoders, --list, --version and --help.
func defineUtilityFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.BoolVar(&cfg.ListEncoders, "list-encoders", false, "Print usable encoder profiles and exit")
	fs.BoolVar(&cfg.ListFiles, "list", false, "Print the input files with durations and exit")
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// applyNegatedFlags copies negated and override flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.speedSet {
		cfg.SpeedSet = true
	}
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs appends every positional arg to Inputs.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) {
	for _, a := range fs.Args() {
		cfg.Inputs = append(cfg.Inputs, NormalizeDirArg(a))
	}
}

// printUsage writes the help text. Column-aligned for readability.
func printUsage(w io.Writer, version string) {
	const col1 = 34 // width of "  -x, --long-name <arg>  "
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "vidpress v" + version + " - batch video compressor"},
		{"", ""},
		{"  vidpress [OPTIONS] <file|dir>...", ""},
		{"", ""},
		{"Encoding", ""},
		{"  -e, --encoder <id>", "Encoder profile (default: best usable)"},
		{"  -q, --quality <level>", "high | balanced | small (default: balanced)"},
		{"  -s, --speed <level>", "fast | balanced | slow (default: balanced)"},
		{"  -r, --resolution <size>", "original | 1080p | 720p | 480p (default: original)"},
		{"", ""},
		{"Output", ""},
		{"  -o, --output <dir>", "Output directory (default: next to each source)"},
		{"", ""},
		{"Tools & integration", ""},
		{"  --ffmpeg <path>", "ffmpeg binary (default: ffmpeg on PATH)"},
		{"  --ffprobe <path>", "ffprobe binary (default: next to ffmpeg)"},
		{"  --redis <addr>", "Publish run status to Redis"},
		{"  --lang <en|zh>", "Interface language (default: system locale)"},
		{"  --save-prefs", "Remember language and encode settings"},
		{"", ""},
		{"Display", ""},
		{"  --plain", "Line output instead of the interactive screen"},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Verbose output"},
		{"  -l, --log <path>", "Append logs to file"},
		{"", ""},
		{"Utility", ""},
		{"  -c, --check", "System diagnostics (ffmpeg, ffprobe, encoders)"},
		{"  --list-encoders", "Print usable encoder profiles and exit"},
		{"  --list", "Print input files with durations and exit"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(w)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(w, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(w, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(w, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// flag.Value adapters so we can use enum types (ID, Quality, Speed, Resolution) with flag.Var.

type encoderValue struct{ p *profile.ID }

func (e *encoderValue) String() string {
	if e.p == nil {
		return ""
	}
	return string(*e.p)
}
func (e *encoderValue) Set(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return errors.New("encoder id must not be empty")
	}
	*e.p = profile.ID(s)
	return nil
}

type qualityValue struct{ p *profile.Quality }

func (q *qualityValue) String() string {
	if q.p == nil {
		return ""
	}
	return q.p.String()
}
func (q *qualityValue) Set(s string) error {
	v, err := profile.ParseQuality(s)
	if err != nil {
		return err
	}
	*q.p = v
	return nil
}

type speedValue struct {
	p   *profile.Speed
	set *bool
}

func (v *speedValue) String() string {
	if v.p == nil {
		return ""
	}
	return v.p.String()
}
func (v *speedValue) Set(s string) error {
	sp, err := profile.ParseSpeed(s)
	if err != nil {
		return err
	}
	*v.p = sp
	*v.set = true
	return nil
}

type resolutionValue struct{ p *profile.Resolution }

func (r *resolutionValue) String() string {
	if r.p == nil {
		return ""
	}
	return r.p.String()
}
func (r *resolutionValue) Set(s string) error {
	v, err := profile.ParseResolution(s)
	if err != nil {
		return err
	}
	*r.p = v
	return nil
}
