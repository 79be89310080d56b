package sync

import (
	"fmt"
	"time"

	"github.com/e-wrobel/dirsync/internal/compare"
)

// ChangeKind is the operation a FileChange performs on the destination.
type ChangeKind int

const (
	// Copy creates an entry missing from the destination.
	Copy ChangeKind = iota
	// Overwrite replaces a destination file whose content differs.
	Overwrite
	// Delete removes a destination entry absent from the source.
	Delete
)

func (k ChangeKind) String() string {
	switch k {
	case Copy:
		return "copy"
	case Overwrite:
		return "overwrite"
	case Delete:
		return "delete"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k ChangeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ChangeKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "copy":
		*k = Copy
	case "overwrite":
		*k = Overwrite
	case "delete":
		*k = Delete
	default:
		return fmt.Errorf("unknown change kind %q", text)
	}
	return nil
}

// FileChange is one planned mutation of the destination tree. SourcePath is
// empty for Delete. IsDir marks a directory to be created (Copy) rather
// than file content.
type FileChange struct {
	Kind            ChangeKind `json:"kind"`
	RelPath         string     `json:"path"`
	SourcePath      string     `json:"source,omitempty"`
	DestinationPath string     `json:"destination"`
	IsDir           bool       `json:"isDir,omitempty"`
}

func (c FileChange) String() string {
	if c.IsDir {
		return fmt.Sprintf("%s %s/", c.Kind, c.RelPath)
	}
	return fmt.Sprintf("%s %s", c.Kind, c.RelPath)
}

// Stats are the counters of one planning run.
type Stats struct {
	FilesInSource             int           `json:"filesInSource"`
	DirectoriesInSource       int           `json:"directoriesInSource"`
	CopiedFiles               int           `json:"copiedFiles"`
	OverwrittenFiles          int           `json:"overwrittenFiles"`
	DeletedFilesInDestination int           `json:"deletedFilesInDestination"`
	Duration                  time.Duration `json:"duration"`
}

// ProgressEvent is emitted after each source file has been handled. Total
// is advisory.
type ProgressEvent struct {
	Processed   int
	Total       int
	Description string
}

// ProgressFunc may be called from a comparison worker.
type ProgressFunc func(ProgressEvent)

// Options configure one planning run.
type Options struct {
	CheckContent  bool
	DeleteOrphans bool
	Method        compare.Method
	// Exclude holds gitignore-style patterns relative to both roots.
	Exclude  []string
	Workers  int
	Progress ProgressFunc
}

// Plan is the result of a planning run. Changes are ordered: deletes first,
// then source entries in pre-order, so directories precede their content.
type Plan struct {
	Changes   []FileChange `json:"changes"`
	Stats     Stats        `json:"stats"`
	Errors    []error      `json:"-"`
	Cancelled bool         `json:"cancelled,omitempty"`
}

func (p *Plan) addErr(err error) {
	if err != nil {
		p.Errors = append(p.Errors, err)
	}
}
