// Command vidpress is the CLI entrypoint for the batch video compressor.
//
// It layers configuration (defaults, saved preferences, environment, flags),
// then either runs system diagnostics (--check), lists encoders or inputs,
// or compresses every input file with the chosen encoder profile while
// showing progress on an interactive screen or as log lines.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/backmassage/vidpress/internal/check"
	"github.com/backmassage/vidpress/internal/config"
	"github.com/backmassage/vidpress/internal/display"
	"github.com/backmassage/vidpress/internal/ffmpeg"
	"github.com/backmassage/vidpress/internal/locale"
	"github.com/backmassage/vidpress/internal/logging"
	"github.com/backmassage/vidpress/internal/pipeline"
	"github.com/backmassage/vidpress/internal/probe"
	"github.com/backmassage/vidpress/internal/profile"
	"github.com/backmassage/vidpress/internal/publish"
	"github.com/backmassage/vidpress/internal/report"
	"github.com/backmassage/vidpress/internal/runner"
	"github.com/backmassage/vidpress/internal/term"
	"github.com/backmassage/vidpress/internal/tui"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: Bootstrap. The logger doesn't exist yet, so errors go
	// directly to stderr via fmt.
	cfg := config.DefaultConfig()
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "vidpress: %v\n", err)
	}
	store := config.NewJSONStore(cfg.PrefsPath)
	prefs, err := store.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "vidpress: preferences: %v\n", err)
	} else if err := config.ApplyPrefs(&cfg, prefs); err != nil {
		fmt.Fprintf(os.Stderr, "vidpress: preferences: %v\n", err)
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "vidpress: %v\n", err)
	}
	if err := config.ParseFlags(&cfg, version, os.Args[1:]); err != nil {
		if errors.Is(err, config.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "vidpress: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "vidpress: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vidpress: %v\n", err)
		return 1
	}
	defer log.Close()

	// Phase 2: Logger available. All output goes through log from here on.
	cat := locale.New(locale.Detect(cfg.Language, os.Getenv))
	r := runner.New(cfg.TerminateGrace)
	platform := profile.CurrentPlatform()
	reg := profile.Resolve(platform)

	// Cancel on SIGINT/SIGTERM; a running batch treats it as a stop request.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Received interrupt, stopping…")
			cancel()
		case <-ctx.Done():
		}
	}()

	if cfg.CheckOnly {
		display.PrintBanner(os.Stdout)
		log.Info("vidpress v%s (%s)", version, commit)
		check.RunCheck(ctx, &cfg, r, reg, log)
		return 0
	}

	// Fail fast if the engine or probe tool is unavailable.
	if err := check.CheckDeps(ctx, &cfg, r); err != nil {
		log.Error("%s", cat.T(locale.KeyEngineMissing))
		log.Error("%v", err)
		return 1
	}

	usable, err := ffmpeg.ProbeEncoders(ctx, r, cfg.FFmpegPath, reg.Profiles(), cfg.ProbeTimeout)
	if err != nil {
		log.Warn("Could not list encoders: %v", err)
	}
	avail := reg.Restrict(usable)
	log.Debug(cfg.Verbose, "usable profiles: %v", avail.IDs())

	if cfg.ListEncoders {
		listEncoders(os.Stdout, avail, platform, cat)
		return 0
	}

	prof, fellBack := chooseProfile(avail, cfg.Encoder, platform)
	if fellBack {
		log.Warn("%s", cat.T(locale.KeyFallback, string(cfg.Encoder), cat.ProfileName(prof.ID)))
	}
	if cfg.SpeedSet && !prof.HasPreset {
		log.Warn("%s", cat.T(locale.KeyNoSpeed, cat.ProfileName(prof.ID)))
	}

	if cfg.SavePrefs {
		cfg.Encoder = prof.ID
		if err := store.Save(config.PrefsFrom(&cfg, string(cat.Lang()))); err != nil {
			log.Warn("Could not save preferences: %v", err)
		} else {
			log.Info("Preferences saved to %s", store.Path())
		}
	}

	files, errs := pipeline.Collect(cfg.Inputs)
	for _, e := range errs {
		log.Warn("%v", e)
	}
	if len(files) == 0 {
		log.Error("%s", cat.T(locale.KeyNoFiles))
		return 1
	}

	inspector := probe.NewInspector(cfg.ProbePath(), r, cfg.InspectTimeout)
	if cfg.ListFiles {
		pipeline.Inventory(ctx, files, inspector, cfg.InspectWorkers, os.Stdout, log)
		return 0
	}

	// Phase 3: Run the batch.
	pub := openPublisher(ctx, &cfg, log)
	defer pub.Close()

	orch := pipeline.New(pipeline.Options{
		Engine:   cfg.FFmpegPath,
		Registry: avail,
		Runner:   r,
		Duration: inspector.Duration,
		Log:      log,
		Verbose:  cfg.Verbose,
	})
	settings := pipeline.Settings{
		Profile:    prof.ID,
		Quality:    cfg.Quality,
		Speed:      cfg.Speed,
		Resolution: cfg.Resolution,
		OutputDir:  cfg.OutputDir,
	}
	run, err := orch.Start(ctx, files, settings)
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	log.Debug(cfg.Verbose, "run %s: %d files, profile %s", run.ID, len(files), prof.ID)
	events := publish.Mirror(ctx, run, run.ID, pub, log)

	if !cfg.Plain && term.Interactive() {
		log.Mute(true)
		_, err := tui.Run(ctx, tui.New(run.Files(), events, run, cat, prof, settings))
		log.Mute(false)
		if err != nil && ctx.Err() == nil {
			log.Warn("Interactive view ended: %v", err)
		}
	} else {
		log.Info("%s: %s | %s", cat.T(locale.KeyEncoder), cat.ProfileName(prof.ID), cat.ProfileInfo(prof.Info))
		log.Info("%s", cat.T(locale.KeyFileCount, len(files), display.FormatBytes(totalSize(files))))
		report.Consume(events, run.Files(), cat, log)
	}

	res := run.Wait()
	report.Summary(os.Stdout, res, cat)
	return report.ExitCode(res)
}

// chooseProfile resolves the requested profile among the usable ones.
// An empty request picks the platform preference; an unusable request
// falls back to it and reports fellBack.
func chooseProfile(avail *profile.Registry, requested profile.ID, platform profile.Platform) (p profile.Profile, fellBack bool) {
	if requested != "" {
		if p, ok := avail.Lookup(requested); ok {
			return p, false
		}
		return avail.Preferred(platform), true
	}
	return avail.Preferred(platform), false
}

// listEncoders prints every usable profile with its description, marking
// the default selection.
func listEncoders(w io.Writer, avail *profile.Registry, platform profile.Platform, cat *locale.Catalog) {
	preferred := avail.Preferred(platform).ID
	for _, p := range avail.Profiles() {
		mark := " "
		if p.ID == preferred {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %-12s %-34s %s\n", mark, p.ID, cat.ProfileName(p.ID), cat.ProfileInfo(p.Info))
	}
}

// openPublisher connects the Redis status sink when configured. Any
// connection problem is logged and yields a no-op publisher.
func openPublisher(ctx context.Context, cfg *config.Config, log *logging.Logger) publish.Publisher {
	if cfg.RedisAddr == "" {
		return publish.Nop{}
	}
	rp := publish.NewRedis(publish.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   cfg.RedisPrefix,
	})
	pingCtx, cancel := context.WithTimeout(ctx, publish.PublishTimeout)
	defer cancel()
	if err := rp.Ping(pingCtx); err != nil {
		log.Warn("Redis %s unavailable, status publishing disabled: %v", cfg.RedisAddr, err)
		_ = rp.Close()
		return publish.Nop{}
	}
	log.Info("Publishing run status to redis://%s (channel %s)", cfg.RedisAddr, publish.Channel(cfg.RedisPrefix))
	return rp
}

func totalSize(files []pipeline.SourceFile) int64 {
	var n int64
	for _, f := range files {
		n += f.Size
	}
	return n
}
