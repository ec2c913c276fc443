// Package profile is the encoder profile registry: the static table that
// maps a selectable encoder to its ffmpeg codec, quality-control flag,
// per-level quality values, and optional speed presets.
//
// The table is platform-derived. Two CPU profiles (libx264, libx265) are
// always present; darwin adds VideoToolbox profiles driven by target
// bitrate, and windows adds NVENC, AMF, and Quick Sync profiles, each with
// values tuned to its own quality scale. Lookups never fail: an unknown
// quality or speed level resolves to [DefaultQualityValue] or
// [DefaultPresetValue].
package profile
