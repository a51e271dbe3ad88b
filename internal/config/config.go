// Package config loads the on-disk TOML configuration this process reads at
// startup, validates it, and derives the data/cache directories the rest of
// the process needs, the notegraphd analogue of the teacher's
// internal/config package (config.go + validator.go), generalized from KDL
// project-indexing settings to the note-build domain's much smaller
// surface.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"github.com/standardbeagle/notegraphd/internal/buildlog"
)

// defaultWatchDebounceMs is the quiescence window the teacher's own
// WatchDebounceMs field defaults to when a config doesn't set one; the
// resolved value is what internal/build uses as its debounce window.
const defaultWatchDebounceMs = 500

// fileConfig is the literal shape of config.toml.
type fileConfig struct {
	ProjectDirectory string   `toml:"project_directory"`
	DefaultNote      string   `toml:"default_note"`
	ExtraDirectories []string `toml:"extra_directories"`
	WatchDebounceMs  int      `toml:"watch_debounce_ms"`
}

// Config is the validated, resolved configuration this process runs with.
type Config struct {
	ProjectDirectory string
	NotesDirectory   string
	BuildDirectory   string
	DefaultNote      uuid.UUID
	ExtraDirectories []string
	DataDirectory    string
	CacheDirectory   string
	WatchDebounceMs  int
}

// Path returns the platform config file path, os.UserConfigDir()/notegraphd/config.toml.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", buildlog.New(buildlog.CategoryConfig, "resolve user config directory", err)
	}
	return filepath.Join(dir, "notegraphd", "config.toml"), nil
}

// Load reads and validates the config file at path, deriving
// NotesDirectory, BuildDirectory, DataDirectory, and CacheDirectory.
// Every failure is returned as a *buildlog.Error with CategoryConfig, per
// spec.md §9's "config errors are fatal at startup" rule.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, buildlog.New(buildlog.CategoryConfig, "read config file", err).WithFile(path)
	}

	var fc fileConfig
	if err := toml.Unmarshal(raw, &fc); err != nil {
		return nil, buildlog.New(buildlog.CategoryConfig, "parse config toml", err).WithFile(path)
	}

	cfg, err := resolve(&fc)
	if err != nil {
		return nil, buildlog.New(buildlog.CategoryConfig, "validate config", err).WithFile(path)
	}
	return cfg, nil
}

func resolve(fc *fileConfig) (*Config, error) {
	if fc.ProjectDirectory == "" {
		return nil, errors.New("project_directory is required")
	}
	projectDir, err := filepath.Abs(fc.ProjectDirectory)
	if err != nil {
		return nil, fmt.Errorf("resolve project_directory %q: %w", fc.ProjectDirectory, err)
	}
	if info, err := os.Stat(projectDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("project_directory %q does not exist or is not a directory", projectDir)
	}

	notesDir := filepath.Join(projectDir, "notes")
	if info, err := os.Stat(notesDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("notes directory %q does not exist or is not a directory", notesDir)
	}

	if fc.DefaultNote == "" {
		return nil, errors.New("default_note is required")
	}
	defaultNote, err := uuid.Parse(fc.DefaultNote)
	if err != nil {
		return nil, fmt.Errorf("default_note %q is not a valid UUID: %w", fc.DefaultNote, err)
	}

	extraDirs := make([]string, 0, len(fc.ExtraDirectories))
	for _, d := range fc.ExtraDirectories {
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, fmt.Errorf("resolve extra_directories entry %q: %w", d, err)
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			return nil, fmt.Errorf("extra_directories entry %q does not exist or is not a directory", abs)
		}
		extraDirs = append(extraDirs, abs)
	}

	dataDir, cacheDir, err := platformDirs()
	if err != nil {
		return nil, err
	}

	debounce := fc.WatchDebounceMs
	if debounce <= 0 {
		debounce = defaultWatchDebounceMs
	}

	return &Config{
		ProjectDirectory: projectDir,
		NotesDirectory:   notesDir,
		BuildDirectory:   filepath.Join(projectDir, "build"),
		DefaultNote:      defaultNote,
		ExtraDirectories: extraDirs,
		DataDirectory:    dataDir,
		CacheDirectory:   cacheDir,
		WatchDebounceMs:  debounce,
	}, nil
}

// platformDirs derives data_directory and cache_directory the way the
// original derives them from ProjectDirs::from("", "", "phelps"). Go has no
// single idiomatic directories-crate equivalent among the examples, so this
// one derivation is stdlib rather than grounded on a pack library
// (DESIGN.md): os.UserCacheDir() backs both, since it's the only stdlib
// per-user directory function with no OS-specific config/data split to get
// wrong.
func platformDirs() (dataDir, cacheDir string, err error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", "", fmt.Errorf("resolve user cache directory: %w", err)
	}
	return filepath.Join(base, "notegraphd", "data"), filepath.Join(base, "notegraphd", "packages"), nil
}
