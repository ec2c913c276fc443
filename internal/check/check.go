// Package check provides system diagnostics (--check mode) and pre-batch
// dependency validation (CheckDeps) for the encoding engine, the probe
// tool, the encoder listing, and the AAC audio encoder.
package check

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/backmassage/vidpress/internal/config"
	"github.com/backmassage/vidpress/internal/ffmpeg"
	"github.com/backmassage/vidpress/internal/profile"
	"github.com/backmassage/vidpress/internal/runner"
)

// Sentinel errors returned by CheckDeps and EngineAvailable.
var (
	ErrEngineNotFound = errors.New("ffmpeg not found")
	ErrProbeNotFound  = errors.New("ffprobe not found")
	ErrEngineUnusable = errors.New("ffmpeg found but -version failed")
)

const aacTestTimeout = 10 * time.Second

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// EngineAvailable verifies the engine binary resolves and answers
// "-version" within five seconds. It returns the first line of the version
// output.
func EngineAvailable(ctx context.Context, r runner.Runner, path string) (string, error) {
	if _, err := lookPath(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrEngineNotFound, path)
	}
	v, err := ffmpeg.Version(ctx, r, path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEngineUnusable, err)
	}
	return v, nil
}

// CheckDeps is the pre-batch validation: the engine must be usable and the
// probe tool must resolve. Returns a wrapped sentinel error on failure.
func CheckDeps(ctx context.Context, cfg *config.Config, r runner.Runner) error {
	if _, err := EngineAvailable(ctx, r, cfg.FFmpegPath); err != nil {
		return err
	}
	if _, err := lookPath(cfg.ProbePath()); err != nil {
		return fmt.Errorf("%w: %s", ErrProbeNotFound, cfg.ProbePath())
	}
	return nil
}

// RunCheck runs the interactive --check flow: prints availability of the
// engine and probe tool, the usable profiles from reg, and whether the AAC
// encoder works. This is informational only; it does not stop on failure.
// It returns the usable profile IDs.
func RunCheck(ctx context.Context, cfg *config.Config, r runner.Runner, reg *profile.Registry, log Logger) []profile.ID {
	log.Info("=== System Check ===")

	if !checkEngine(ctx, cfg, r, log) {
		return nil
	}
	checkProbe(cfg, log)
	usable := checkProfiles(ctx, cfg, r, reg, log)
	checkAAC(ctx, cfg, r, log)
	return usable
}

// checkEngine verifies the engine resolves and logs its version string.
func checkEngine(ctx context.Context, cfg *config.Config, r runner.Runner, log Logger) bool {
	v, err := EngineAvailable(ctx, r, cfg.FFmpegPath)
	switch {
	case errors.Is(err, ErrEngineNotFound):
		log.Error("ffmpeg not found (%s)", cfg.FFmpegPath)
		return false
	case err != nil:
		log.Warn("%v", err)
		return false
	}
	log.Success("ffmpeg: %s", v)
	return true
}

// checkProbe verifies the probe tool resolves.
func checkProbe(cfg *config.Config, log Logger) {
	path := cfg.ProbePath()
	resolved, err := lookPath(path)
	if err != nil {
		log.Warn("ffprobe not found (%s); progress will stay at 0%% while encoding", path)
		return
	}
	log.Success("ffprobe: %s", resolved)
}

// checkProfiles lists the encoders and reports each registry profile as
// usable or unavailable.
func checkProfiles(ctx context.Context, cfg *config.Config, r runner.Runner, reg *profile.Registry, log Logger) []profile.ID {
	log.Info("Encoder profiles:")
	usable, err := ffmpeg.ProbeEncoders(ctx, r, cfg.FFmpegPath, reg.Profiles(), cfg.ProbeTimeout)
	if err != nil {
		log.Warn("Could not list encoders: %v", err)
	}
	ok := make(map[profile.ID]bool, len(usable))
	for _, id := range usable {
		ok[id] = true
	}
	for _, p := range reg.Profiles() {
		if ok[p.ID] {
			log.Success("  %-12s %s", p.ID, p.Codec)
		} else {
			log.Warn("  %-12s %s (unavailable)", p.ID, p.Codec)
		}
	}
	if len(usable) == 0 {
		log.Warn("No encoder detected; %s will be offered as the fallback", reg.Default().ID)
	}
	return usable
}

// checkAAC runs a minimal AAC encode to verify the audio encoder works.
func checkAAC(ctx context.Context, cfg *config.Config, r runner.Runner, log Logger) {
	log.Info("Testing AAC encoder...")
	ctx, cancel := context.WithTimeout(ctx, aacTestTimeout)
	defer cancel()
	_, err := r.Output(ctx, cfg.FFmpegPath,
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "sine=frequency=1000:duration=0.1",
		"-c:a", ffmpeg.AudioCodec, "-f", "null", "-",
	)
	if err != nil {
		log.Error("AAC encoder test failed: %v", err)
		return
	}
	log.Success("AAC encoder works")
}
