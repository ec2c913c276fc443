package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/backmassage/vidpress/internal/ffmpeg"
	"github.com/backmassage/vidpress/internal/naming"
	"github.com/backmassage/vidpress/internal/profile"
	"github.com/backmassage/vidpress/internal/runner"
)

// Sentinel errors returned by Start.
var (
	ErrNoFiles        = errors.New("no files to compress")
	ErrUnknownProfile = errors.New("unknown encoder profile")
	ErrRunActive      = errors.New("a batch is already running")
)

// Logger is the minimal logging interface the orchestrator needs. Only
// debug output is written so an interactive screen is never disturbed.
type Logger interface {
	Debug(bool, string, ...interface{})
}

// DurationFunc returns a source's duration in seconds, or 0 if unknown.
type DurationFunc func(ctx context.Context, path string) float64

// Settings is the user intent for one run. Immutable for the run.
type Settings struct {
	Profile    profile.ID
	Quality    profile.Quality
	Speed      profile.Speed
	Resolution profile.Resolution
	OutputDir  string // Empty: next to each source.
}

// EncodeJob is one file's resolved encode.
type EncodeJob struct {
	Index      int
	Source     SourceFile
	OutputPath string
	Args       []string // argv, engine first.
	Duration   float64
}

// Options configures an Orchestrator.
type Options struct {
	Engine   string // ffmpeg binary.
	Registry *profile.Registry
	Runner   runner.Runner
	Duration DurationFunc // nil: durations unknown.
	Threads  int          // 0: ffmpeg.Threads(NumCPU).
	Log      Logger
	Verbose  bool
	// EventBuffer is the capacity of each run's event channel.
	EventBuffer int
}

// Orchestrator starts batch runs. At most one run is active at a time.
type Orchestrator struct {
	opts Options

	mu     sync.Mutex
	active *Run
}

// New returns an Orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Engine == "" {
		opts.Engine = "ffmpeg"
	}
	if opts.Registry == nil {
		opts.Registry = profile.Resolve(profile.CurrentPlatform())
	}
	if opts.Runner == nil {
		opts.Runner = runner.New(runner.DefaultGrace)
	}
	if opts.Duration == nil {
		opts.Duration = func(context.Context, string) float64 { return 0 }
	}
	if opts.Log == nil {
		opts.Log = nopLogger{}
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 16
	}
	return &Orchestrator{opts: opts}
}

// Start snapshots files and begins encoding them in order on a background
// goroutine. The caller must drain Run.Events until it is closed.
// Cancelling ctx has the same effect as Run.Stop.
func (o *Orchestrator) Start(ctx context.Context, files []SourceFile, s Settings) (*Run, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	prof, ok := o.opts.Registry.Lookup(s.Profile)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, s.Profile)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active != nil {
		return nil, ErrRunActive
	}

	snapshot := make([]SourceFile, len(files))
	copy(snapshot, files)

	runCtx, cancel := context.WithCancel(ctx)
	r := &Run{
		ID:       uuid.New().String(),
		opts:     o.opts,
		files:    snapshot,
		settings: s,
		profile:  prof,
		events:   make(chan Event, o.opts.EventBuffer),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	r.result.Total = len(snapshot)
	r.state.Store(int32(StateRunning))
	o.active = r

	o.opts.Log.Debug(o.opts.Verbose, "run %s: %d files, profile %s, quality %s, speed %s, resolution %s",
		r.ID, len(snapshot), prof.ID, s.Quality, s.Speed, s.Resolution)

	go func() {
		select {
		case <-runCtx.Done():
			r.Stop()
		case <-r.done:
		}
	}()
	r.release = func() {
		o.mu.Lock()
		if o.active == r {
			o.active = nil
		}
		o.mu.Unlock()
	}
	go func() {
		r.loop(runCtx)
		cancel()
	}()
	return r, nil
}

// Active returns the running batch, or nil.
func (o *Orchestrator) Active() *Run {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// BuildJob resolves the output path and ffmpeg argv for one source file.
func BuildJob(index int, src SourceFile, prof profile.Profile, s Settings, engine string, threads int) EncodeJob {
	out := naming.OutputPath(src.Path, s.OutputDir)
	return EncodeJob{
		Index:      index,
		Source:     src,
		OutputPath: out,
		Args: ffmpeg.Build(ffmpeg.BuildOptions{
			Engine:     engine,
			Input:      src.Path,
			Output:     out,
			Profile:    prof,
			Quality:    s.Quality,
			Speed:      s.Speed,
			Resolution: s.Resolution,
			Threads:    threads,
		}),
	}
}

// State is the lifecycle of a run.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Run is one batch. Its state is discarded when it finishes; a new batch
// needs a new Start.
type Run struct {
	ID string

	opts     Options
	files    []SourceFile
	settings Settings
	profile  profile.Profile

	events chan Event
	seq    int64

	stop  atomic.Bool
	state atomic.Int32

	mu   sync.Mutex
	proc runner.Process

	cancel  context.CancelFunc
	release func()
	done    chan struct{}
	result  BatchResult
}

// Events returns the run's event stream. It is closed after batch_done.
func (r *Run) Events() <-chan Event { return r.events }

// Files returns a copy of the run's working set.
func (r *Run) Files() []SourceFile {
	out := make([]SourceFile, len(r.files))
	copy(out, r.files)
	return out
}

// Profile returns the profile the run encodes with.
func (r *Run) Profile() profile.Profile { return r.profile }

// State reports the current lifecycle state.
func (r *Run) State() State { return State(r.state.Load()) }

// Stop requests cooperative cancellation and terminates the active encode.
// Safe to call repeatedly and after the run has finished.
func (r *Run) Stop() {
	if r.State() == StateFinished {
		return
	}
	r.state.CompareAndSwap(int32(StateRunning), int32(StateStopping))
	if r.stop.Swap(true) {
		return
	}
	r.opts.Log.Debug(r.opts.Verbose, "run %s: stop requested", r.ID)
	r.mu.Lock()
	p := r.proc
	r.mu.Unlock()
	if p != nil {
		p.Terminate()
	}
	r.cancel()
}

// Stopping reports whether Stop has been called.
func (r *Run) Stopping() bool { return r.stop.Load() }

// Done is closed when the run has finished and its events channel is closed.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run finishes and returns its result. Events must
// be drained concurrently or Wait never returns.
func (r *Run) Wait() BatchResult {
	<-r.done
	return r.result
}

func (r *Run) loop(ctx context.Context) {
	defer r.finish()

	for i, f := range r.files {
		if r.stop.Load() {
			break
		}
		r.emit(Event{Kind: EventProgress, FileIndex: i, Percent: 0, Status: StatusPreparing})

		job, ferr := r.prepare(i, f)
		if ferr != nil {
			r.fail(ferr)
			continue
		}

		job.Duration = r.opts.Duration(ctx, f.Path)
		r.opts.Log.Debug(r.opts.Verbose, "[%d/%d] %s: duration %.2fs", i+1, len(r.files), f.Name, job.Duration)
		if r.stop.Load() {
			break
		}

		out, abandoned, ferr := r.encode(ctx, job)
		if abandoned {
			r.result.TotalInputBytes += f.Size
			break
		}
		if ferr != nil {
			r.fail(ferr)
			continue
		}
		r.succeed(i, f, job.OutputPath, out)
	}
}

// prepare runs the pre-flight checks and builds the job.
func (r *Run) prepare(i int, f SourceFile) (EncodeJob, *FileError) {
	if _, err := os.Stat(f.Path); err != nil {
		return EncodeJob{}, &FileError{Index: i, Path: f.Path, Stage: StagePreflight, Err: err}
	}
	job := BuildJob(i, f, r.profile, r.settings, r.opts.Engine, r.opts.Threads)
	if err := os.MkdirAll(filepath.Dir(job.OutputPath), 0o755); err != nil {
		return EncodeJob{}, &FileError{Index: i, Path: f.Path, Stage: StageMkdir, Err: err}
	}
	return job, nil
}

// encode launches the engine and follows its progress. abandoned is true
// when a stop request ended the encode; no outcome is reported then.
func (r *Run) encode(ctx context.Context, job EncodeJob) (outBytes int64, abandoned bool, ferr *FileError) {
	i := job.Index
	r.opts.Log.Debug(r.opts.Verbose, "[%d/%d] %q", i+1, len(r.files), job.Args)

	started := time.Now()
	proc, err := r.opts.Runner.Launch(ctx, job.Args[0], job.Args[1:]...)
	if err != nil {
		return 0, false, &FileError{Index: i, Path: job.Source.Path, Stage: StageLaunch, Err: err}
	}
	r.setProc(proc)
	defer r.setProc(nil)
	if r.stop.Load() {
		proc.Terminate()
	}

	tracker := ffmpeg.NewTracker(job.Duration)
	tail := ffmpeg.NewTail(ffmpeg.TailSize)
	interrupted := false
	for line := range proc.Lines() {
		if r.stop.Load() {
			proc.Terminate()
			interrupted = true
			break
		}
		tail.Add(line)
		if pct, ok := tracker.Observe(line); ok {
			r.emit(Event{Kind: EventProgress, FileIndex: i, Percent: pct, Status: StatusCompressing})
		}
	}
	waitErr := proc.Wait()

	if interrupted || (waitErr != nil && r.stop.Load()) {
		removeIfWrittenSince(job.OutputPath, started)
		r.opts.Log.Debug(r.opts.Verbose, "[%d/%d] abandoned after stop", i+1, len(r.files))
		return 0, true, nil
	}

	if waitErr != nil {
		if reason := ffmpeg.Classify(tail.Lines()); reason != "" {
			waitErr = fmt.Errorf("%w (%s)", waitErr, reason)
		}
		return 0, false, &FileError{Index: i, Path: job.Source.Path, Stage: StageEncode, Err: waitErr}
	}

	fi, err := os.Stat(job.OutputPath)
	if err != nil {
		return 0, false, &FileError{Index: i, Path: job.Source.Path, Stage: StageVerify, Err: err}
	}
	if fi.Size() == 0 {
		_ = os.Remove(job.OutputPath)
		return 0, false, &FileError{Index: i, Path: job.Source.Path, Stage: StageVerify, Err: errEmptyOutput}
	}
	return fi.Size(), false, nil
}

var errEmptyOutput = errors.New("engine produced an empty output file")

func (r *Run) setProc(p runner.Process) {
	r.mu.Lock()
	r.proc = p
	r.mu.Unlock()
}

func (r *Run) succeed(i int, f SourceFile, outPath string, size int64) {
	r.result.Completed++
	r.result.TotalInputBytes += f.Size
	r.result.TotalOutputBytes += size
	r.emit(Event{Kind: EventFileDone, FileIndex: i, Success: true, OutputBytes: size, OutputPath: outPath, Status: StatusDone})
}

// fail records a per-file failure. Directory and launch problems are also
// surfaced as error events.
func (r *Run) fail(ferr *FileError) {
	r.opts.Log.Debug(r.opts.Verbose, "[%d/%d] failed: %v", ferr.Index+1, len(r.files), ferr)
	switch ferr.Stage {
	case StageMkdir, StageLaunch:
		r.emit(Event{Kind: EventError, FileIndex: ferr.Index, Stage: ferr.Stage, Message: ferr.Error()})
	}
	r.result.Failed++
	r.result.TotalInputBytes += r.files[ferr.Index].Size
	r.emit(Event{Kind: EventFileDone, FileIndex: ferr.Index, Success: false, Status: StatusFailed, Reason: ferr.Err.Error()})
}

func (r *Run) finish() {
	r.result.Stopped = r.stop.Load()
	res := r.result
	r.state.Store(int32(StateFinished))
	r.emit(Event{Kind: EventBatchDone, FileIndex: -1, Result: &res})
	close(r.events)
	r.release()
	close(r.done)
}

func (r *Run) emit(ev Event) {
	r.seq++
	ev.RunID = r.ID
	ev.Seq = r.seq
	ev.Time = time.Now()
	r.events <- ev
}

// removeIfWrittenSince deletes path if it was modified at or after t, so a
// pre-existing file the engine never opened is left alone.
func removeIfWrittenSince(path string, t time.Time) {
	fi, err := os.Stat(path)
	if err != nil {
		return
	}
	if !fi.ModTime().Before(t.Truncate(time.Second)) {
		_ = os.Remove(path)
	}
}

type nopLogger struct{}

func (nopLogger) Debug(bool, string, ...interface{}) {}
