package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/backmassage/vidpress/internal/profile"
)

// Prefs is the persisted subset of Config. Values are stored by name so the
// file stays readable and survives enum reordering.
type Prefs struct {
	Language   string `json:"language,omitempty"`
	Encoder    string `json:"encoder,omitempty"`
	Quality    string `json:"quality,omitempty"`
	Speed      string `json:"speed,omitempty"`
	Resolution string `json:"resolution,omitempty"`
}

// PrefsStore defines persistence operations for preferences.
type PrefsStore interface {
	Load() (Prefs, error)
	Save(Prefs) error
}

// JSONStore persists preferences in a single JSON file on disk.
type JSONStore struct {
	path string
}

// NewJSONStore creates a JSON-backed preferences store.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the backing file path.
func (s *JSONStore) Path() string { return s.path }

// Load reads preferences from disk or returns empty prefs when missing.
func (s *JSONStore) Load() (Prefs, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Prefs{}, nil
		}
		return Prefs{}, err
	}

	var p Prefs
	if err := json.Unmarshal(data, &p); err != nil {
		return Prefs{}, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return p, nil
}

// Save writes preferences as indented JSON and creates parent directories.
func (s *JSONStore) Save(p Prefs) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// DefaultPrefsPath returns <user config dir>/vidpress/prefs.json, or a
// relative fallback when the user config dir is unknown.
func DefaultPrefsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".vidpress", "prefs.json")
	}
	return filepath.Join(dir, "vidpress", "prefs.json")
}

// ApplyPrefs copies stored values into cfg. Empty fields are skipped.
// Invalid values are skipped too and reported together in the returned
// error; cfg keeps its previous value for those fields.
func ApplyPrefs(cfg *Config, p Prefs) error {
	var errs []error
	if p.Language != "" {
		switch p.Language {
		case LangEnglish, LangChinese:
			cfg.Language = p.Language
		default:
			errs = append(errs, fmt.Errorf("invalid language %q", p.Language))
		}
	}
	if p.Encoder != "" {
		cfg.Encoder = profile.ID(p.Encoder)
	}
	if p.Quality != "" {
		if q, err := profile.ParseQuality(p.Quality); err == nil {
			cfg.Quality = q
		} else {
			errs = append(errs, err)
		}
	}
	if p.Speed != "" {
		if s, err := profile.ParseSpeed(p.Speed); err == nil {
			cfg.Speed = s
		} else {
			errs = append(errs, err)
		}
	}
	if p.Resolution != "" {
		if r, err := profile.ParseResolution(p.Resolution); err == nil {
			cfg.Resolution = r
		} else {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PrefsFrom extracts the persisted subset from cfg. lang is the effective
// language (cfg.Language may be empty when it was auto-detected).
func PrefsFrom(cfg *Config, lang string) Prefs {
	return Prefs{
		Language:   lang,
		Encoder:    string(cfg.Encoder),
		Quality:    cfg.Quality.String(),
		Speed:      cfg.Speed.String(),
		Resolution: cfg.Resolution.String(),
	}
}
