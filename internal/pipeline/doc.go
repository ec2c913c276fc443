// Package pipeline is the batch compression orchestrator.
//
// [Collect] turns user inputs (files and directories) into an ordered
// working set of [SourceFile]. [Orchestrator.Start] snapshots that set and
// encodes it strictly one file at a time on a background goroutine,
// reporting through a channel of [Event]: progress, file_done, error, and
// a single batch_done that always comes last. [Run.Stop] is cooperative:
// the flag is checked before each file and on every stderr line, and the
// active ffmpeg process is terminated.
//
// Per-file failures (missing source, output directory, launch, non-zero
// exit, empty output) never end the batch; only a stop does.
package pipeline
