package pipeline

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/backmassage/vidpress/internal/profile"
	"github.com/backmassage/vidpress/internal/runner"
)

const mib = 1024 * 1024

// behavior scripts one fake engine invocation, keyed by input path.
type behavior struct {
	lines     []string
	outSize   int64 // bytes written to the output path; -1 writes nothing.
	exitErr   error
	block     bool // after the lines, wait until terminated.
	launchErr error
	lineDelay time.Duration
}

// fakeRunner plays behaviors instead of running ffmpeg and records
// concurrency and termination.
type fakeRunner struct {
	mu         sync.Mutex
	behaviors  map[string]behavior
	launched   []string
	running    atomic.Int32
	maxRunning atomic.Int32
	terminated atomic.Int32
	started    chan string // receives the input path on each launch, if set.
}

func newFakeRunner(b map[string]behavior) *fakeRunner {
	return &fakeRunner{behaviors: b}
}

func (f *fakeRunner) Output(context.Context, string, ...string) ([]byte, error) {
	return nil, errors.New("not supported")
}

func (f *fakeRunner) Launch(_ context.Context, name string, args ...string) (runner.Process, error) {
	input := argAfter(args, "-i")
	output := args[len(args)-1]

	f.mu.Lock()
	b := f.behaviors[input]
	f.launched = append(f.launched, input)
	f.mu.Unlock()

	if b.launchErr != nil {
		return nil, b.launchErr
	}
	n := f.running.Add(1)
	for {
		m := f.maxRunning.Load()
		if n <= m || f.maxRunning.CompareAndSwap(m, n) {
			break
		}
	}

	p := &fakeProcess{
		lines:   make(chan string),
		kill:    make(chan struct{}),
		discard: make(chan struct{}),
		exited:  make(chan struct{}),
		onTerm:  func() { f.terminated.Add(1) },
	}
	go p.play(b, output, func() { f.running.Add(-1) })
	if f.started != nil {
		f.started <- input
	}
	return p, nil
}

func argAfter(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

var errKilled = errors.New("signal: terminated")

type fakeProcess struct {
	lines       chan string
	kill        chan struct{}
	killOnce    sync.Once
	discard     chan struct{}
	discardOnce sync.Once
	exited      chan struct{}
	err         error
	onTerm      func()
}

func (p *fakeProcess) play(b behavior, output string, done func()) {
	defer close(p.exited)
	defer done()
	for _, l := range b.lines {
		if b.lineDelay > 0 {
			time.Sleep(b.lineDelay)
		}
		select {
		case p.lines <- l:
		case <-p.discard:
		case <-p.kill:
			close(p.lines)
			p.err = errKilled
			return
		}
	}
	if b.block {
		select {
		case <-p.kill:
			close(p.lines)
			p.err = errKilled
			return
		case <-time.After(10 * time.Second):
		}
	}
	if b.outSize >= 0 {
		if f, err := os.Create(output); err == nil {
			_ = f.Truncate(b.outSize)
			f.Close()
		}
	}
	close(p.lines)
	p.err = b.exitErr
}

func (p *fakeProcess) Lines() <-chan string { return p.lines }

func (p *fakeProcess) Wait() error {
	p.discardOnce.Do(func() { close(p.discard) })
	<-p.exited
	return p.err
}

func (p *fakeProcess) Terminate() {
	select {
	case <-p.exited:
		return
	default:
	}
	p.killOnce.Do(func() {
		p.onTerm()
		close(p.kill)
	})
}

func (p *fakeProcess) Pid() int { return 4242 }

// --- helpers ---

func sourceFiles(t *testing.T, dir string, sizes ...int64) []SourceFile {
	t.Helper()
	files := make([]SourceFile, len(sizes))
	for i, size := range sizes {
		name := string(rune('a'+i)) + ".mkv"
		path := filepath.Join(dir, name)
		touch(t, dir, name)
		files[i] = SourceFile{Path: path, Name: name, Size: size}
	}
	return files
}

func newTestOrchestrator(r runner.Runner, durations map[string]float64) *Orchestrator {
	return New(Options{
		Engine:   "ffmpeg",
		Registry: profile.Resolve(profile.PlatformOther),
		Runner:   r,
		Threads:  2,
		Duration: func(_ context.Context, path string) float64 { return durations[path] },
	})
}

func defaultSettings() Settings {
	return Settings{
		Profile:    profile.CPUH264,
		Quality:    profile.QualityBalanced,
		Speed:      profile.SpeedBalanced,
		Resolution: profile.ResolutionOriginal,
	}
}

func collectEvents(run *Run) []Event {
	var events []Event
	for ev := range run.Events() {
		events = append(events, ev)
	}
	return events
}

func ofKind(events []Event, kind EventKind) []Event {
	var out []Event
	for _, ev := range events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func progressLines(seconds ...string) []string {
	lines := []string{"Input #0, matroska,webm, from 'in.mkv':", "  Duration: 00:01:40.00"}
	for _, s := range seconds {
		lines = append(lines, "frame=  100 fps=50 size=512kB time="+s+" bitrate=1000kbits/s speed=2x")
	}
	return lines
}

// --- tests ---

func TestStart_Validation(t *testing.T) {
	o := newTestOrchestrator(newFakeRunner(nil), nil)
	if _, err := o.Start(context.Background(), nil, defaultSettings()); !errors.Is(err, ErrNoFiles) {
		t.Errorf("Start(no files) = %v, want ErrNoFiles", err)
	}
	s := defaultSettings()
	s.Profile = profile.NVIDIA
	files := []SourceFile{{Path: "/x.mp4", Name: "x.mp4"}}
	if _, err := o.Start(context.Background(), files, s); !errors.Is(err, ErrUnknownProfile) {
		t.Errorf("Start(nvidia on linux registry) = %v, want ErrUnknownProfile", err)
	}
}

// Two files of 100 MiB and 50 MiB compress to 40 MiB and 20 MiB.
func TestRun_TwoFilesSucceed(t *testing.T) {
	dir := t.TempDir()
	files := sourceFiles(t, dir, 100*mib, 50*mib)
	r := newFakeRunner(map[string]behavior{
		files[0].Path: {lines: progressLines("00:00:50.00"), outSize: 40 * mib},
		files[1].Path: {lines: progressLines("00:00:20.00"), outSize: 20 * mib},
	})
	o := newTestOrchestrator(r, map[string]float64{files[0].Path: 100, files[1].Path: 100})

	run, err := o.Start(context.Background(), files, defaultSettings())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	events := collectEvents(run)
	res := run.Wait()

	want := BatchResult{Completed: 2, Total: 2, TotalInputBytes: 157286400, TotalOutputBytes: 62914560}
	if res != want {
		t.Errorf("result = %+v, want %+v", res, want)
	}

	last := events[len(events)-1]
	if last.Kind != EventBatchDone || last.Result == nil || *last.Result != want {
		t.Errorf("last event = %+v, want batch_done %+v", last, want)
	}
	if n := len(ofKind(events, EventBatchDone)); n != 1 {
		t.Errorf("batch_done count = %d, want 1", n)
	}

	done := ofKind(events, EventFileDone)
	if len(done) != 2 || !done[0].Success || done[0].OutputBytes != 40*mib || done[1].OutputBytes != 20*mib {
		t.Errorf("file_done events = %+v", done)
	}
	wantOut := filepath.Join(dir, "a_compressed.mp4")
	if done[0].OutputPath != wantOut {
		t.Errorf("output path = %q, want %q", done[0].OutputPath, wantOut)
	}
	if run.State() != StateFinished {
		t.Errorf("state = %s, want finished", run.State())
	}
	for i, ev := range events {
		if ev.RunID != run.ID || ev.Seq != int64(i+1) {
			t.Errorf("event %d: run=%q seq=%d", i, ev.RunID, ev.Seq)
		}
	}
}

// Events for file i all precede events for file i+1, and no two encodes
// ever overlap.
func TestRun_SequentialAndOrdered(t *testing.T) {
	dir := t.TempDir()
	files := sourceFiles(t, dir, 10, 10, 10, 10)
	b := map[string]behavior{}
	for _, f := range files {
		b[f.Path] = behavior{lines: progressLines("00:00:10.00", "00:00:30.00"), outSize: 5, lineDelay: time.Millisecond}
	}
	r := newFakeRunner(b)
	o := newTestOrchestrator(r, nil)

	run, err := o.Start(context.Background(), files, defaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	events := collectEvents(run)

	if got := r.maxRunning.Load(); got != 1 {
		t.Errorf("max concurrent encodes = %d, want 1", got)
	}
	idx := 0
	for _, ev := range events {
		if ev.Kind == EventBatchDone {
			continue
		}
		if ev.FileIndex < idx {
			t.Errorf("event for file %d after file %d", ev.FileIndex, idx)
		}
		idx = ev.FileIndex
	}
	if res := run.Wait(); res.Completed != 4 {
		t.Errorf("completed = %d, want 4", res.Completed)
	}
}

func TestRun_ProgressMonotonicAndCapped(t *testing.T) {
	dir := t.TempDir()
	files := sourceFiles(t, dir, 1000)
	r := newFakeRunner(map[string]behavior{
		files[0].Path: {
			lines:   progressLines("00:00:10.00", "00:00:09.00", "00:00:45.50", "00:01:39.99", "00:01:45.00"),
			outSize: 100,
		},
	})
	o := newTestOrchestrator(r, map[string]float64{files[0].Path: 100})
	run, err := o.Start(context.Background(), files, defaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	events := collectEvents(run)

	var pcts []int
	for _, ev := range ofKind(events, EventProgress) {
		if ev.Status == StatusCompressing {
			pcts = append(pcts, ev.Percent)
		}
	}
	want := []int{10, 10, 45, 99, 99}
	if len(pcts) != len(want) {
		t.Fatalf("percentages = %v, want %v", pcts, want)
	}
	for i := range want {
		if pcts[i] != want[i] {
			t.Errorf("percentages = %v, want %v", pcts, want)
			break
		}
	}
	first := events[0]
	if first.Kind != EventProgress || first.Status != StatusPreparing || first.Percent != 0 {
		t.Errorf("first event = %+v, want preparing 0", first)
	}
}

func TestRun_UnknownDurationKeepsZero(t *testing.T) {
	dir := t.TempDir()
	files := sourceFiles(t, dir, 1000)
	r := newFakeRunner(map[string]behavior{
		files[0].Path: {lines: progressLines("00:00:10.00", "00:05:00.00"), outSize: 300},
	})
	o := newTestOrchestrator(r, nil)
	run, err := o.Start(context.Background(), files, defaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	events := collectEvents(run)

	progress := ofKind(events, EventProgress)
	if len(progress) != 3 {
		t.Fatalf("progress events = %d, want 3 (preparing + 2 compressing)", len(progress))
	}
	for _, ev := range progress {
		if ev.Percent != 0 {
			t.Errorf("percent = %d with unknown duration, want 0", ev.Percent)
		}
	}
	done := ofKind(events, EventFileDone)
	if len(done) != 1 || !done[0].Success {
		t.Errorf("file_done = %+v, want success", done)
	}
}

// A source deleted before its turn fails without stopping the batch.
func TestRun_MissingSourceFails(t *testing.T) {
	dir := t.TempDir()
	files := sourceFiles(t, dir, 100, 200, 300)
	if err := os.Remove(files[1].Path); err != nil {
		t.Fatal(err)
	}
	r := newFakeRunner(map[string]behavior{
		files[0].Path: {outSize: 10},
		files[2].Path: {outSize: 30},
	})
	o := newTestOrchestrator(r, nil)
	run, err := o.Start(context.Background(), files, defaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	events := collectEvents(run)
	res := run.Wait()

	done := ofKind(events, EventFileDone)
	if len(done) != 3 {
		t.Fatalf("file_done count = %d, want 3", len(done))
	}
	if done[1].FileIndex != 1 || done[1].Success || done[1].OutputBytes != 0 {
		t.Errorf("file 1 outcome = %+v, want failure with 0 bytes", done[1])
	}
	if res.Completed != 2 || res.Total != 3 || res.Failed != 1 {
		t.Errorf("result = %+v, want completed=2 total=3 failed=1", res)
	}
	if res.TotalOutputBytes != 40 {
		t.Errorf("output bytes = %d, want 40", res.TotalOutputBytes)
	}
	for _, in := range r.launched {
		if in == files[1].Path {
			t.Error("engine launched for a missing source")
		}
	}
}

func TestRun_ZeroByteOutputRemoved(t *testing.T) {
	dir := t.TempDir()
	files := sourceFiles(t, dir, 100)
	r := newFakeRunner(map[string]behavior{files[0].Path: {outSize: 0}})
	o := newTestOrchestrator(r, nil)
	run, err := o.Start(context.Background(), files, defaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	events := collectEvents(run)

	done := ofKind(events, EventFileDone)
	if len(done) != 1 || done[0].Success {
		t.Fatalf("file_done = %+v, want failure", done)
	}
	out := filepath.Join(dir, "a_compressed.mp4")
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("zero-byte output still present (stat err = %v)", err)
	}
	if res := run.Wait(); res.Completed != 0 || res.TotalOutputBytes != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestRun_NonZeroExitAndMissingOutput(t *testing.T) {
	dir := t.TempDir()
	files := sourceFiles(t, dir, 100, 100, 100)
	r := newFakeRunner(map[string]behavior{
		files[0].Path: {lines: []string{"Unknown encoder 'libx264'"}, outSize: -1, exitErr: errors.New("exit status 1")},
		files[1].Path: {outSize: -1},
		files[2].Path: {outSize: 7},
	})
	o := newTestOrchestrator(r, nil)
	run, err := o.Start(context.Background(), files, defaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	events := collectEvents(run)

	done := ofKind(events, EventFileDone)
	if len(done) != 3 || done[0].Success || done[1].Success || !done[2].Success {
		t.Fatalf("file_done = %+v", done)
	}
	if !strings.Contains(done[0].Reason, "encoder not available") {
		t.Errorf("reason = %q, want classified encoder failure", done[0].Reason)
	}
	if len(ofKind(events, EventError)) != 0 {
		t.Error("encode failures should not raise error events")
	}
}

func TestRun_OutputDirFailureIsReported(t *testing.T) {
	dir := t.TempDir()
	files := sourceFiles(t, dir, 100, 100)
	blocker := filepath.Join(dir, "blocker")
	touch(t, dir, "blocker")

	r := newFakeRunner(map[string]behavior{})
	o := newTestOrchestrator(r, nil)
	s := defaultSettings()
	s.OutputDir = filepath.Join(blocker, "out")
	run, err := o.Start(context.Background(), files, s)
	if err != nil {
		t.Fatal(err)
	}
	events := collectEvents(run)

	errs := ofKind(events, EventError)
	if len(errs) != 2 || errs[0].Stage != StageMkdir || errs[0].FileIndex != 0 {
		t.Errorf("error events = %+v, want one mkdir error per file", errs)
	}
	done := ofKind(events, EventFileDone)
	if len(done) != 2 || done[0].Success || done[1].Success {
		t.Errorf("file_done = %+v, want two failures", done)
	}
	if len(r.launched) != 0 {
		t.Errorf("engine launched %d times, want 0", len(r.launched))
	}
}

func TestRun_LaunchFailureContinues(t *testing.T) {
	dir := t.TempDir()
	files := sourceFiles(t, dir, 100, 100)
	r := newFakeRunner(map[string]behavior{
		files[0].Path: {launchErr: runner.ErrNotStarted},
		files[1].Path: {outSize: 9},
	})
	o := newTestOrchestrator(r, nil)
	run, err := o.Start(context.Background(), files, defaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	events := collectEvents(run)

	errs := ofKind(events, EventError)
	if len(errs) != 1 || errs[0].Stage != StageLaunch {
		t.Errorf("error events = %+v, want one launch error", errs)
	}
	if res := run.Wait(); res.Completed != 1 || res.Failed != 1 {
		t.Errorf("result = %+v", res)
	}
}

// Stop during file 2 of 3 terminates its encode and skips file 3. The
// abandoned file still counts toward the input bytes.
func TestRun_StopMidEncode(t *testing.T) {
	dir := t.TempDir()
	files := sourceFiles(t, dir, 100, 200, 300)
	r := newFakeRunner(map[string]behavior{
		files[0].Path: {lines: progressLines("00:00:50.00"), outSize: 40},
		files[1].Path: {lines: progressLines("00:00:10.00"), outSize: 50, block: true},
		files[2].Path: {outSize: 60},
	})
	r.started = make(chan string, 3)
	o := newTestOrchestrator(r, map[string]float64{files[0].Path: 100, files[1].Path: 100})

	run, err := o.Start(context.Background(), files, defaultSettings())
	if err != nil {
		t.Fatal(err)
	}

	var events []Event
	stopped := false
	for ev := range run.Events() {
		events = append(events, ev)
		if !stopped && ev.Kind == EventProgress && ev.FileIndex == 1 && ev.Status == StatusCompressing {
			run.Stop()
			run.Stop()
			stopped = true
		}
	}
	res := run.Wait()

	if got := r.terminated.Load(); got != 1 {
		t.Errorf("terminate requests = %d, want 1", got)
	}
	for _, ev := range events {
		if ev.FileIndex == 2 {
			t.Errorf("event for file 2 after stop: %+v", ev)
		}
		if ev.Kind == EventFileDone && ev.FileIndex == 1 {
			t.Errorf("outcome emitted for abandoned file: %+v", ev)
		}
	}
	want := BatchResult{Completed: 1, Total: 3, TotalInputBytes: 300, TotalOutputBytes: 40, Stopped: true}
	if res != want {
		t.Errorf("result = %+v, want %+v", res, want)
	}
	if len(r.launched) != 2 {
		t.Errorf("launched %d encodes, want 2", len(r.launched))
	}
	if run.State() != StateFinished {
		t.Errorf("state = %s", run.State())
	}
	// The run is released, so a new one can start.
	if o.Active() != nil {
		t.Error("orchestrator still reports an active run")
	}
}

func TestRun_ContextCancelStops(t *testing.T) {
	dir := t.TempDir()
	files := sourceFiles(t, dir, 100, 100)
	r := newFakeRunner(map[string]behavior{
		files[0].Path: {block: true},
		files[1].Path: {outSize: 1},
	})
	r.started = make(chan string, 2)
	o := newTestOrchestrator(r, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	run, err := o.Start(ctx, files, defaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		<-r.started
		cancel()
	}()
	events := collectEvents(run)
	res := run.Wait()
	if !res.Stopped || res.Completed != 0 {
		t.Errorf("result = %+v, want stopped with nothing completed", res)
	}
	if len(ofKind(events, EventFileDone)) != 0 {
		t.Error("unexpected file_done after cancel")
	}
}

func TestStart_RejectsConcurrentRun(t *testing.T) {
	dir := t.TempDir()
	files := sourceFiles(t, dir, 100)
	r := newFakeRunner(map[string]behavior{files[0].Path: {block: true}})
	r.started = make(chan string, 1)
	o := newTestOrchestrator(r, nil)

	run, err := o.Start(context.Background(), files, defaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		for range run.Events() {
		}
	}()
	<-r.started
	if _, err := o.Start(context.Background(), files, defaultSettings()); !errors.Is(err, ErrRunActive) {
		t.Errorf("second Start = %v, want ErrRunActive", err)
	}
	run.Stop()
	run.Wait()

	r.behaviors[files[0].Path] = behavior{outSize: 3}
	run2, err := o.Start(context.Background(), files, defaultSettings())
	if err != nil {
		t.Fatalf("Start after finish: %v", err)
	}
	collectEvents(run2)
	if run2.ID == run.ID {
		t.Error("runs share an ID")
	}
	if res := run2.Wait(); res.Completed != 1 {
		t.Errorf("second run result = %+v", res)
	}
}

func TestRun_SnapshotIsolatesCaller(t *testing.T) {
	dir := t.TempDir()
	files := sourceFiles(t, dir, 100, 100)
	r := newFakeRunner(map[string]behavior{
		files[0].Path: {outSize: 1},
		files[1].Path: {outSize: 1},
	})
	o := newTestOrchestrator(r, nil)
	run, err := o.Start(context.Background(), files, defaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	files[1] = SourceFile{Path: "/elsewhere.mp4"}
	collectEvents(run)
	if got := run.Files()[1].Name; got != "b.mkv" {
		t.Errorf("snapshot mutated: %q", got)
	}
	if res := run.Wait(); res.Completed != 2 {
		t.Errorf("result = %+v", res)
	}
}

func TestBuildJob(t *testing.T) {
	reg := profile.Resolve(profile.PlatformOther)
	prof, _ := reg.Lookup(profile.CPUH265)
	src := SourceFile{Path: filepath.FromSlash("/v/trip.mov"), Name: "trip.mov", Size: 10}
	s := Settings{Profile: prof.ID, Quality: profile.QualitySmall, Speed: profile.SpeedFast, Resolution: profile.Resolution720p, OutputDir: filepath.FromSlash("/out")}

	job := BuildJob(3, src, prof, s, "ffmpeg", 4)
	if job.OutputPath != filepath.FromSlash("/out/trip_compressed.mp4") {
		t.Errorf("output = %q", job.OutputPath)
	}
	joined := strings.Join(job.Args, " ")
	for _, want := range []string{"-c:v libx265", "-crf 35", "-preset veryfast", "-vf scale=-2:720", "-threads 4"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
}

// --- Real-engine integration test ---

func TestRun_RealEngine(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available")
	}
	dir := t.TempDir()
	src := filepath.Join(dir, "clip.mp4")
	gen := exec.Command("ffmpeg",
		"-f", "lavfi", "-i", "testsrc=duration=1:size=640x360:rate=24",
		"-f", "lavfi", "-i", "sine=frequency=440:duration=1:sample_rate=48000",
		"-c:v", "libx264", "-pix_fmt", "yuv420p", "-c:a", "aac",
		"-y", src,
	)
	if err := gen.Run(); err != nil {
		t.Skipf("cannot generate test clip: %v", err)
	}
	fi, err := os.Stat(src)
	if err != nil {
		t.Fatal(err)
	}

	o := New(Options{
		Registry: profile.Resolve(profile.PlatformOther),
		Runner:   runner.New(time.Second),
		Duration: func(context.Context, string) float64 { return 1 },
	})
	s := defaultSettings()
	s.Speed = profile.SpeedFast
	s.Resolution = profile.Resolution480p
	s.OutputDir = filepath.Join(dir, "out")
	run, err := o.Start(context.Background(), []SourceFile{{Path: src, Name: "clip.mp4", Size: fi.Size()}}, s)
	if err != nil {
		t.Fatal(err)
	}
	collectEvents(run)
	res := run.Wait()
	if res.Completed != 1 || res.TotalOutputBytes == 0 {
		t.Errorf("result = %+v, want one compressed file", res)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "clip_compressed.mp4")); err != nil {
		t.Errorf("output missing: %v", err)
	}
}
