package exclude

import (
	"path"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// Bookkeeping marker files written by operating systems. They are never
// counted, planned or deleted.
var bookkeeping = map[string]struct{}{
	".DS_Store":   {},
	"Thumbs.db":   {},
	"desktop.ini": {},
}

// IsBookkeeping reports whether name is an OS-generated marker file.
func IsBookkeeping(name string) bool {
	if _, ok := bookkeeping[name]; ok {
		return true
	}
	// AppleDouble resource forks.
	return strings.HasPrefix(name, "._")
}

// Matcher decides which relative paths take no part in a sync run.
type Matcher struct {
	user *ignore.GitIgnore
}

// New compiles gitignore-style patterns on top of the bookkeeping rules.
func New(patterns []string) *Matcher {
	var lines []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		lines = append(lines, p)
	}
	m := &Matcher{}
	if len(lines) > 0 {
		m.user = ignore.CompileIgnoreLines(lines...)
	}
	return m
}

// IsExcluded reports whether relPath (relative to a sync root, OS
// separators allowed) is skipped.
func (m *Matcher) IsExcluded(relPath string, isDir bool) bool {
	rel := path.Clean(filepath.ToSlash(relPath))
	if rel == "." || rel == "" {
		return false
	}
	if IsBookkeeping(path.Base(rel)) {
		return true
	}
	if m == nil || m.user == nil {
		return false
	}
	if isDir && m.user.MatchesPath(rel+"/") {
		return true
	}
	return m.user.MatchesPath(rel)
}
