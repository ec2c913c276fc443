package ffmpeg

import (
	"context"
	"strings"
	"time"

	"github.com/backmassage/vidpress/internal/profile"
	"github.com/backmassage/vidpress/internal/runner"
)

// Default probe timeouts.
const (
	EncodersTimeout = 10 * time.Second
	VersionTimeout  = 5 * time.Second
)

// ProbeEncoders runs "engine -hide_banner -encoders" and returns the IDs of
// the profiles whose codec appears in the listing. Any failure, including
// timeout, yields an empty result; callers restrict the registry with it
// and get the default profile back.
func ProbeEncoders(ctx context.Context, r runner.Runner, engine string, profiles []profile.Profile, timeout time.Duration) ([]profile.ID, error) {
	if timeout <= 0 {
		timeout = EncodersTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := r.Output(ctx, engine, "-hide_banner", "-encoders")
	if err != nil {
		return nil, err
	}
	return Supported(string(out), profiles), nil
}

// Supported returns, in profile order, the IDs whose codec identifier is a
// substring of listing.
func Supported(listing string, profiles []profile.Profile) []profile.ID {
	var ids []profile.ID
	for _, p := range profiles {
		if p.Codec != "" && strings.Contains(listing, p.Codec) {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// Version runs "engine -version" and returns its first line.
func Version(ctx context.Context, r runner.Runner, engine string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, VersionTimeout)
	defer cancel()
	out, err := r.Output(ctx, engine, "-version")
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line), nil
}
