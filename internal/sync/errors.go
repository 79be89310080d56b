package sync

import (
	"errors"
	"fmt"
)

// Error kinds. Every error recorded by the planner or applier matches one of
// these with errors.Is.
var (
	// ErrPathNotFound marks a missing or unreadable root. Fatal to planning.
	ErrPathNotFound = errors.New("path not found")
	// ErrEnumeration marks a subtree that could not be listed.
	ErrEnumeration = errors.New("enumeration failed")
	// ErrIO marks an open, read, write, copy or remove failure on one entry.
	ErrIO = errors.New("i/o error")
	// ErrTypeMismatch marks a path that is a file on one side and a
	// directory on the other.
	ErrTypeMismatch = errors.New("type mismatch")
)

// PathError records the operation and path that failed.
type PathError struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *PathError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *PathError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func pathErr(kind error, op, path string, err error) *PathError {
	return &PathError{Op: op, Path: path, Kind: kind, Err: err}
}
