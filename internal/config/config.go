package config

import (
	"github.com/e-wrobel/dirsync/internal/compare"
	"github.com/e-wrobel/dirsync/internal/sync"
)

const (
	// EnvPrefix is the prefix for environment overrides.
	EnvPrefix = "DIRSYNC_"

	appDirName     = "dirsync"
	fileName       = "settings.json"
	defaultWorkers = 1
)

// Settings are remembered between runs.
type Settings struct {
	LastSourcePath string         `json:"lastSourcePath"`
	LastDestPath   string         `json:"lastDestPath"`
	DeleteOrphans  bool           `json:"deleteOrphans"`
	CheckContent   bool           `json:"checkContent"`
	CompareMethod  compare.Method `json:"compareMethod"`
	Exclude        []string       `json:"exclude"`
	Workers        int            `json:"workers"`
}

// DefaultSettings are used for every key that is missing or unreadable.
func DefaultSettings() Settings {
	return Settings{
		DeleteOrphans: true,
		CheckContent:  true,
		CompareMethod: compare.Hash,
		Exclude:       []string{},
		Workers:       defaultWorkers,
	}
}

// Options converts the sync-related settings into engine options.
func (s Settings) Options() sync.Options {
	return sync.Options{
		CheckContent:  s.CheckContent,
		DeleteOrphans: s.DeleteOrphans,
		Method:        s.CompareMethod,
		Exclude:       append([]string(nil), s.Exclude...),
		Workers:       s.Workers,
	}
}
