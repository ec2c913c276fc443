// Package ffmpeg knows the ffmpeg command-line contract: it builds encode
// argument lists from a profile and settings, parses the running
// time=H:MM:SS.ff timestamp out of stderr, and probes the engine's
// compiled-in encoder list.
//
// Files:
//   - builder.go: Build, Threads
//   - progress.go: ParseProgressTime, Percent, Tracker
//   - encoders.go: ProbeEncoders, Supported, Version
//   - errors.go: Classify (stderr tail to a short failure reason)
package ffmpeg
