package naming

import (
	"path/filepath"
	"strings"
)

// Fixed output naming.
const (
	Suffix    = "_compressed"
	Extension = ".mp4"
)

// OutputDir returns the directory an encode of input writes to: override
// when set, otherwise the source's own directory.
func OutputDir(input, override string) string {
	if override != "" {
		return override
	}
	return filepath.Dir(input)
}

// OutputPath returns <dir>/<stem>_compressed.mp4 for input, where dir is
// OutputDir(input, override).
//
//	/v/clip.mov, ""      -> /v/clip_compressed.mp4
//	/v/clip.mov, "/out"  -> /out/clip_compressed.mp4
func OutputPath(input, override string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(OutputDir(input, override), stem+Suffix+Extension)
}
