package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"

	"github.com/e-wrobel/dirsync/internal/compare"
)

// DefaultPath is settings.json under the user's XDG config directory.
func DefaultPath() (string, error) {
	return xdg.ConfigFile(filepath.Join(appDirName, fileName))
}

// Read returns the settings stored at path without environment overrides.
// The result is always usable: a missing file gives the defaults, and a key
// that cannot be decoded keeps its default. A non-nil error describes what
// was ignored.
func Read(path string) (Settings, error) {
	s := DefaultSettings()
	err := s.loadFromFile(path)
	return s, err
}

// Load is Read followed by WithEnv.
func Load(path string) (Settings, error) {
	s, err := Read(path)
	return s.WithEnv(), err
}

// WithEnv returns a copy of s with the DIRSYNC_* overrides applied. The
// copy is for running only; persist the settings it was made from.
func (s Settings) WithEnv() Settings {
	s.Exclude = append([]string{}, s.Exclude...)
	s.loadFromEnv()
	return s
}

func (s *Settings) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	errs := []error{
		field(raw, "lastSourcePath", &s.LastSourcePath),
		field(raw, "lastDestPath", &s.LastDestPath),
		field(raw, "deleteOrphans", &s.DeleteOrphans),
		field(raw, "checkContent", &s.CheckContent),
		field(raw, "compareMethod", &s.CompareMethod),
		field(raw, "exclude", &s.Exclude),
		field(raw, "workers", &s.Workers),
	}
	if s.Workers < 1 {
		s.Workers = defaultWorkers
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func field[T any](raw map[string]json.RawMessage, key string, dst *T) error {
	v, ok := raw[key]
	if !ok || string(v) == "null" {
		return nil
	}
	var tmp T
	if err := json.Unmarshal(v, &tmp); err != nil {
		return fmt.Errorf("key %s: %w", key, err)
	}
	*dst = tmp
	return nil
}

func (s *Settings) loadFromEnv() {
	if v := os.Getenv(EnvPrefix + "DELETE_ORPHANS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			s.DeleteOrphans = b
		}
	}
	if v := os.Getenv(EnvPrefix + "CHECK_CONTENT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			s.CheckContent = b
		}
	}
	if v := os.Getenv(EnvPrefix + "COMPARE_METHOD"); v != "" {
		if m, err := compare.ParseMethod(v); err == nil {
			s.CompareMethod = m
		}
	}
	if v := os.Getenv(EnvPrefix + "WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.Workers = n
		}
	}
}

// Save writes settings to path through a temporary file and a rename.
func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp~"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Keys lists the names accepted by Set.
func Keys() []string {
	return []string{"lastSourcePath", "lastDestPath", "deleteOrphans", "checkContent", "compareMethod", "exclude", "workers"}
}

// Set changes one setting from its string form. exclude takes a
// comma-separated list.
func (s *Settings) Set(key, value string) error {
	switch key {
	case "lastSourcePath":
		s.LastSourcePath = value
	case "lastDestPath":
		s.LastDestPath = value
	case "deleteOrphans", "checkContent":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if key == "deleteOrphans" {
			s.DeleteOrphans = b
		} else {
			s.CheckContent = b
		}
	case "compareMethod":
		m, err := compare.ParseMethod(value)
		if err != nil {
			return err
		}
		s.CompareMethod = m
	case "exclude":
		s.Exclude = SplitList(value)
	case "workers":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("workers must be a positive integer, got %q", value)
		}
		s.Workers = n
	default:
		return fmt.Errorf("unknown setting %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	return nil
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(value string) []string {
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
