package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ApplyFailure pairs a change with the reason it could not be applied.
type ApplyFailure struct {
	Change FileChange
	Err    error
}

// ApplyResult counts applied changes and keeps every failure.
type ApplyResult struct {
	Succeeded int
	Failed    []ApplyFailure
	Cancelled bool
}

// Apply executes changes in order. A failing change is recorded and the
// next one is attempted. Changes already applied stay applied when ctx ends
// the run early.
func (e *Engine) Apply(ctx context.Context, changes []FileChange) *ApplyResult {
	res := &ApplyResult{}
	for _, ch := range changes {
		if ctx.Err() != nil {
			e.log.Warn("apply cancelled", "remaining", len(changes)-res.Succeeded-len(res.Failed))
			res.Cancelled = true
			break
		}
		if err := e.applyOne(ch); err != nil {
			e.log.Error("apply", "change", ch.Kind, "path", ch.RelPath, "err", err)
			res.Failed = append(res.Failed, ApplyFailure{Change: ch, Err: err})
			continue
		}
		e.log.Debug("applied", "change", ch.Kind, "path", ch.RelPath, "dir", ch.IsDir)
		res.Succeeded++
	}
	return res
}

func (e *Engine) applyOne(ch FileChange) error {
	if ch.DestinationPath == "" {
		return pathErr(ErrIO, ch.Kind.String(), ch.RelPath, errors.New("no destination path"))
	}

	switch ch.Kind {
	case Delete:
		if err := e.fs.RemoveAll(ch.DestinationPath); err != nil {
			return pathErr(ErrIO, "delete", ch.DestinationPath, err)
		}
		return nil
	case Copy, Overwrite:
	default:
		return pathErr(ErrIO, "apply", ch.DestinationPath, fmt.Errorf("unknown change kind %d", int(ch.Kind)))
	}

	if ch.SourcePath == "" {
		return pathErr(ErrIO, ch.Kind.String(), ch.DestinationPath, errors.New("no source path"))
	}
	info, err := e.fs.Stat(ch.SourcePath)
	if err != nil {
		return pathErr(ErrIO, "stat", ch.SourcePath, err)
	}

	if info.IsDir() {
		if err := e.fs.MkdirAll(ch.DestinationPath, 0o755); err != nil {
			return pathErr(ErrIO, "mkdir", ch.DestinationPath, err)
		}
		return nil
	}

	if ch.Kind == Overwrite {
		// Remove first: a failed copy leaves the entry absent and the next
		// plan sees it as a Copy.
		if err := e.fs.Remove(ch.DestinationPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return pathErr(ErrIO, "remove", ch.DestinationPath, err)
		}
	}
	if err := copyFile(e.fs, ch.SourcePath, ch.DestinationPath, info); err != nil {
		return pathErr(ErrIO, ch.Kind.String(), ch.DestinationPath, err)
	}
	return nil
}
