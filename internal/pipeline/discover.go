package pipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Supported video extensions (lowercase, with leading dot).
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpg":  true,
	".mpeg": true,
	".ts":   true,
}

// IsVideo reports whether path has a supported video extension.
func IsVideo(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// SourceFile is one entry of the working set. Immutable once collected.
type SourceFile struct {
	Path string `json:"path"` // Absolute.
	Name string `json:"name"` // Base name for display.
	Size int64  `json:"size"`
}

// Discover walks dir, collects files with video extensions, and returns
// the paths sorted lexicographically for deterministic processing order.
func Discover(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if IsVideo(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Collect builds the working set from files and directories. Paths are
// made absolute and deduplicated, keeping first-seen order. Explicitly
// named files are accepted regardless of extension; directories contribute
// only video files. Unreadable inputs are reported in errs and skipped.
func Collect(inputs []string) (files []SourceFile, errs []error) {
	seen := make(map[string]bool)
	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("resolve %s: %w", path, err))
			return
		}
		if seen[abs] {
			return
		}
		fi, err := os.Stat(abs)
		if err != nil {
			errs = append(errs, err)
			return
		}
		seen[abs] = true
		files = append(files, SourceFile{Path: abs, Name: filepath.Base(abs), Size: fi.Size()})
	}

	for _, in := range inputs {
		fi, err := os.Stat(in)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !fi.IsDir() {
			add(in)
			continue
		}
		paths, err := Discover(in)
		if err != nil {
			errs = append(errs, fmt.Errorf("scan %s: %w", in, err))
			continue
		}
		for _, p := range paths {
			add(p)
		}
	}
	return files, errs
}
