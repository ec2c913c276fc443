// Package runner launches external tools and streams their diagnostic
// output.
//
// [ExecRunner] is the production implementation. A launched [Process]
// delivers stderr as a channel of lines, split on either '\n' or '\r' so
// that carriage-return progress updates arrive one at a time. Terminate is
// idempotent: it sends a polite stop signal, escalates to a kill after the
// grace period, and does nothing once the process has exited.
package runner
