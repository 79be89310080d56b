// Package sync makes a destination directory tree match a source tree.
//
// Planning and applying are separate steps so a caller can review the
// change list before anything is written. Engine.Sync runs both.
package sync

import (
	"context"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/e-wrobel/dirsync/internal/compare"
)

// Engine plans and applies changes on one filesystem. It holds no per-run
// state and may be reused.
type Engine struct {
	fs  afero.Fs
	log *slog.Logger
	cmp *compare.Comparator
}

// New returns an Engine working on fs. A nil logger means slog.Default().
func New(fs afero.Fs, logger *slog.Logger, opts ...compare.Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		fs:  fs,
		log: logger,
		cmp: compare.New(fs, opts...),
	}
}

// Sync plans and then applies. It fails only when a root is invalid.
func (e *Engine) Sync(ctx context.Context, sourceRoot, destRoot string, opt Options) (*Report, error) {
	plan, err := e.Plan(ctx, sourceRoot, destRoot, opt)
	if err != nil {
		return nil, err
	}
	if plan.Cancelled {
		return NewReport(plan, nil), nil
	}
	return NewReport(plan, e.Apply(ctx, plan.Changes)), nil
}
