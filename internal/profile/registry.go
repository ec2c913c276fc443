package profile

import (
	"runtime"
)

// Fallback values used when a profile has no entry for the requested level.
const (
	DefaultQualityValue = "23"
	DefaultPresetValue  = "medium"
)

// ID identifies an encoder profile. IDs are stable across locales; display
// names are resolved separately (see the locale package).
type ID string

const (
	CPUH264   ID = "cpu-h264"
	CPUH265   ID = "cpu-h265"
	AppleH264 ID = "apple-h264"
	AppleH265 ID = "apple-h265"
	NVIDIA    ID = "nvidia"
	AMD       ID = "amd"
	Intel     ID = "intel"
)

// Info classifies a profile for the one-line description shown next to it.
type Info string

const (
	InfoCPU    Info = "cpu"
	InfoH265   Info = "h265"
	InfoApple  Info = "apple"
	InfoNVIDIA Info = "nvidia"
	InfoAMD    Info = "amd"
	InfoIntel  Info = "intel"
)

// Platform selects which hardware profiles are offered.
type Platform string

const (
	PlatformDarwin  Platform = "darwin"
	PlatformWindows Platform = "windows"
	PlatformOther   Platform = "other"
)

// CurrentPlatform maps runtime.GOOS onto a Platform.
func CurrentPlatform() Platform {
	return PlatformFor(runtime.GOOS)
}

// PlatformFor maps a GOOS value onto a Platform.
func PlatformFor(goos string) Platform {
	switch goos {
	case "darwin":
		return PlatformDarwin
	case "windows":
		return PlatformWindows
	default:
		return PlatformOther
	}
}

// Profile describes how to invoke the engine for one codec path.
type Profile struct {
	ID            ID
	Codec         string // ffmpeg -c:v value, also the capability-probe needle.
	QualityFlag   string // e.g. "-crf", "-cq", "-b:v".
	QualityValues map[Quality]string
	HasPreset     bool
	PresetValues  map[Speed]string
	Info          Info
}

// QualityValue returns the flag value for q, or DefaultQualityValue.
func (p Profile) QualityValue(q Quality) string {
	if v, ok := p.QualityValues[q]; ok && v != "" {
		return v
	}
	return DefaultQualityValue
}

// PresetValue returns the preset for s, or DefaultPresetValue. Callers
// must check HasPreset first; the value is meaningless otherwise.
func (p Profile) PresetValue(s Speed) string {
	if v, ok := p.PresetValues[s]; ok && v != "" {
		return v
	}
	return DefaultPresetValue
}

var x26xPresets = map[Speed]string{
	SpeedFast:     "veryfast",
	SpeedBalanced: "medium",
	SpeedSlow:     "slow",
}

func cpuProfiles() []Profile {
	return []Profile{
		{
			ID:          CPUH264,
			Codec:       "libx264",
			QualityFlag: "-crf",
			QualityValues: map[Quality]string{
				QualityHigh: "18", QualityBalanced: "23", QualitySmall: "30",
			},
			HasPreset:    true,
			PresetValues: x26xPresets,
			Info:         InfoCPU,
		},
		{
			ID:          CPUH265,
			Codec:       "libx265",
			QualityFlag: "-crf",
			QualityValues: map[Quality]string{
				QualityHigh: "22", QualityBalanced: "28", QualitySmall: "35",
			},
			HasPreset:    true,
			PresetValues: x26xPresets,
			Info:         InfoH265,
		},
	}
}

// VideoToolbox profiles target a bitrate rather than a quality level.
func darwinProfiles() []Profile {
	return []Profile{
		{
			ID:          AppleH264,
			Codec:       "h264_videotoolbox",
			QualityFlag: "-b:v",
			QualityValues: map[Quality]string{
				QualityHigh: "8M", QualityBalanced: "4M", QualitySmall: "2M",
			},
			Info: InfoApple,
		},
		{
			ID:          AppleH265,
			Codec:       "hevc_videotoolbox",
			QualityFlag: "-b:v",
			QualityValues: map[Quality]string{
				QualityHigh: "6M", QualityBalanced: "3M", QualitySmall: "1.5M",
			},
			Info: InfoApple,
		},
	}
}

func windowsProfiles() []Profile {
	return []Profile{
		{
			ID:          NVIDIA,
			Codec:       "h264_nvenc",
			QualityFlag: "-cq",
			QualityValues: map[Quality]string{
				QualityHigh: "19", QualityBalanced: "23", QualitySmall: "28",
			},
			HasPreset: true,
			PresetValues: map[Speed]string{
				SpeedFast: "fast", SpeedBalanced: "medium", SpeedSlow: "slow",
			},
			Info: InfoNVIDIA,
		},
		{
			ID:          AMD,
			Codec:       "h264_amf",
			QualityFlag: "-qp_i",
			QualityValues: map[Quality]string{
				QualityHigh: "18", QualityBalanced: "23", QualitySmall: "28",
			},
			Info: InfoAMD,
		},
		{
			ID:          Intel,
			Codec:       "h264_qsv",
			QualityFlag: "-global_quality",
			QualityValues: map[Quality]string{
				QualityHigh: "20", QualityBalanced: "25", QualitySmall: "30",
			},
			HasPreset:    true,
			PresetValues: x26xPresets,
			Info:         InfoIntel,
		},
	}
}

// Registry is an ordered, immutable set of profiles.
type Registry struct {
	profiles []Profile
}

// Resolve builds the registry for a platform. It always contains the two
// CPU profiles first, followed by any platform hardware profiles.
func Resolve(platform Platform) *Registry {
	profiles := cpuProfiles()
	switch platform {
	case PlatformDarwin:
		profiles = append(profiles, darwinProfiles()...)
	case PlatformWindows:
		profiles = append(profiles, windowsProfiles()...)
	}
	return &Registry{profiles: profiles}
}

// Profiles returns the profiles in registry order.
func (r *Registry) Profiles() []Profile {
	out := make([]Profile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// IDs returns the profile IDs in registry order.
func (r *Registry) IDs() []ID {
	ids := make([]ID, len(r.profiles))
	for i, p := range r.profiles {
		ids[i] = p.ID
	}
	return ids
}

// Len returns the number of profiles.
func (r *Registry) Len() int { return len(r.profiles) }

// Lookup finds a profile by ID.
func (r *Registry) Lookup(id ID) (Profile, bool) {
	for _, p := range r.profiles {
		if p.ID == id {
			return p, true
		}
	}
	return Profile{}, false
}

// Default returns the first profile, which is always the compatible CPU
// profile for registries built by Resolve.
func (r *Registry) Default() Profile {
	if len(r.profiles) == 0 {
		return cpuProfiles()[0]
	}
	return r.profiles[0]
}

// Restrict returns a registry holding only the profiles whose IDs are in
// usable, preserving registry order. When nothing matches, the result is
// the default CPU profile alone so a selectable option always exists.
func (r *Registry) Restrict(usable []ID) *Registry {
	keep := make(map[ID]bool, len(usable))
	for _, id := range usable {
		keep[id] = true
	}
	var out []Profile
	for _, p := range r.profiles {
		if keep[p.ID] {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		out = []Profile{r.Default()}
	}
	return &Registry{profiles: out}
}

// Preferred picks the default selection among the registry's profiles:
// the Apple H.264 profile on darwin or the NVIDIA profile on windows when
// present, otherwise the first profile.
func (r *Registry) Preferred(platform Platform) Profile {
	var want ID
	switch platform {
	case PlatformDarwin:
		want = AppleH264
	case PlatformWindows:
		want = NVIDIA
	}
	if want != "" {
		if p, ok := r.Lookup(want); ok {
			return p
		}
	}
	return r.Default()
}
