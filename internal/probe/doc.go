// Package probe is the media inspector: it asks ffprobe for a file's
// container duration. Inspection is advisory. Any failure yields a
// duration of 0, which downstream code treats as "unknown" (progress stays
// at 0% until the encode finishes) rather than as an error.
//
// [Inspector.InspectAll] probes many files concurrently with a bounded
// worker count, independent of the encode loop.
package probe
