// Package locale holds the user-facing label tables (English and Chinese)
// and resolves the interface language.
//
// The core packages use locale-independent keys (profile IDs, status keys);
// only the CLI and its consumers translate them through a Catalog.
package locale

import (
	"fmt"
	"strings"

	"github.com/backmassage/vidpress/internal/pipeline"
	"github.com/backmassage/vidpress/internal/profile"
)

// Lang is an interface language code.
type Lang string

const (
	English Lang = "en"
	Chinese Lang = "zh"
)

// localeVars are consulted in order by Detect.
var localeVars = []string{"LC_ALL", "LC_MESSAGES", "LANG"}

// Detect returns the interface language. A non-empty explicit value (from
// flag, environment, or prefs) wins; otherwise the first set POSIX locale
// variable decides, and anything starting with "zh" selects Chinese.
func Detect(explicit string, getenv func(string) string) Lang {
	switch strings.ToLower(strings.TrimSpace(explicit)) {
	case "zh":
		return Chinese
	case "en":
		return English
	}
	for _, v := range localeVars {
		val := getenv(v)
		if val == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(val), "zh") {
			return Chinese
		}
		return English
	}
	return English
}

// Catalog translates keys for one language. Missing keys fall back to
// English, then to the key itself.
type Catalog struct {
	lang  Lang
	table map[Key]string
}

// New returns the catalog for lang. Unknown languages get English.
func New(lang Lang) *Catalog {
	t, ok := tables[lang]
	if !ok {
		lang, t = English, tables[English]
	}
	return &Catalog{lang: lang, table: t}
}

// Lang returns the catalog language.
func (c *Catalog) Lang() Lang { return c.lang }

// T returns the translation of key formatted with args (fmt verbs).
func (c *Catalog) T(key Key, args ...interface{}) string {
	text, ok := c.table[key]
	if !ok {
		if text, ok = tables[English][key]; !ok {
			text = string(key)
		}
	}
	if len(args) > 0 {
		return fmt.Sprintf(text, args...)
	}
	return text
}

// ProfileName returns the display name of an encoder profile.
func (c *Catalog) ProfileName(id profile.ID) string {
	if k, ok := profileNames[id]; ok {
		return c.T(k)
	}
	return string(id)
}

// ProfileInfo returns the one-line description for an info class.
func (c *Catalog) ProfileInfo(info profile.Info) string {
	if k, ok := profileInfos[info]; ok {
		return c.T(k)
	}
	return ""
}

// Quality returns the label of a quality level.
func (c *Catalog) Quality(q profile.Quality) string {
	switch q {
	case profile.QualityHigh:
		return c.T(KeyHighQuality)
	case profile.QualitySmall:
		return c.T(KeySmallSize)
	default:
		return c.T(KeyBalanced)
	}
}

// Speed returns the label of a speed level.
func (c *Catalog) Speed(s profile.Speed) string {
	switch s {
	case profile.SpeedFast:
		return c.T(KeyFast)
	case profile.SpeedSlow:
		return c.T(KeyHighCompress)
	default:
		return c.T(KeyBalanced)
	}
}

// Resolution returns the label of a resolution target.
func (c *Catalog) Resolution(r profile.Resolution) string {
	if r == profile.ResolutionOriginal {
		return c.T(KeyKeepOriginal)
	}
	return r.String()
}

// Status returns the label of a per-file status key.
func (c *Catalog) Status(s pipeline.Status) string {
	if k, ok := statusKeys[s]; ok {
		return c.T(k)
	}
	return string(s)
}
