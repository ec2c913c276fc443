// Package publish mirrors run events to an external status sink.
//
// The only real sink is Redis: a hash per run, a hash per file, and a
// pub/sub channel carrying every event as JSON. Publishing is best effort;
// a failing sink never affects the batch.
package publish

import (
	"context"
	"time"

	"github.com/backmassage/vidpress/internal/pipeline"
	"github.com/backmassage/vidpress/internal/profile"
)

// PublishTimeout bounds each call into the sink.
const PublishTimeout = 2 * time.Second

// Publisher receives a run's lifecycle.
type Publisher interface {
	// Begin records a new run before its first event.
	Begin(ctx context.Context, runID string, total int, prof profile.ID) error
	// Publish records one event.
	Publish(ctx context.Context, ev pipeline.Event) error
	Close() error
}

// Logger is the logging needed by Mirror.
type Logger interface {
	Warn(string, ...interface{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) Begin(context.Context, string, int, profile.ID) error { return nil }
func (Nop) Publish(context.Context, pipeline.Event) error { return nil }
func (Nop) Close() error { return nil }

// Source is the part of a run Mirror reads.
type Source interface {
	Events() <-chan pipeline.Event
	Files() []pipeline.SourceFile
	Profile() profile.Profile
}

// Mirror forwards every event of run to the returned channel and publishes
// it to pub. The returned channel closes after the run's channel does. The
// first sink error is logged at WARN and disables publishing for the rest
// of the run.
func Mirror(ctx context.Context, run Source, runID string, pub Publisher, log Logger) <-chan pipeline.Event {
	out := make(chan pipeline.Event, cap(run.Events()))
	go func() {
		defer close(out)
		healthy := call(ctx, log, func(ctx context.Context) error {
			return pub.Begin(ctx, runID, len(run.Files()), run.Profile().ID)
		})
		for ev := range run.Events() {
			if healthy {
				healthy = call(ctx, log, func(ctx context.Context) error { return pub.Publish(ctx, ev) })
			}
			out <- ev
		}
	}()
	return out
}

func call(ctx context.Context, log Logger, fn func(context.Context) error) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), PublishTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Warn("Status publishing disabled: %v", err)
		return false
	}
	return true
}
