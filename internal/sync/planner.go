package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	gosync "sync"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/e-wrobel/dirsync/internal/exclude"
	"github.com/e-wrobel/dirsync/internal/validators"
)

// Plan computes the changes that make destRoot match sourceRoot without
// touching either tree. A missing or unreadable root is the only error
// returned; every other failure is collected in Plan.Errors and the walk
// goes on. When ctx ends early the partial plan comes back with Cancelled
// set.
func (e *Engine) Plan(ctx context.Context, sourceRoot, destRoot string, opt Options) (*Plan, error) {
	start := time.Now()

	sourceRoot = filepath.Clean(sourceRoot)
	destRoot = filepath.Clean(destRoot)
	if err := validators.MustDir(e.fs, sourceRoot); err != nil {
		return nil, pathErr(ErrPathNotFound, "source", sourceRoot, err)
	}
	if err := validators.MustDir(e.fs, destRoot); err != nil {
		return nil, pathErr(ErrPathNotFound, "destination", destRoot, err)
	}

	p := &planner{
		Engine:  e,
		ctx:     ctx,
		src:     sourceRoot,
		dst:     destRoot,
		opt:     opt,
		matcher: exclude.New(opt.Exclude),
		plan:    &Plan{},
	}
	p.run()

	p.plan.Stats.Duration = time.Since(start)
	e.log.Info("plan finished",
		"source", sourceRoot,
		"destination", destRoot,
		"changes", len(p.plan.Changes),
		"errors", len(p.plan.Errors),
		"cancelled", p.plan.Cancelled,
		"duration", p.plan.Stats.Duration)
	return p.plan, nil
}

type planner struct {
	*Engine
	ctx      context.Context
	src, dst string
	opt      Options
	matcher  *exclude.Matcher
	plan     *Plan
	progress *progress

	// kept holds orphan directories that still contain excluded entries.
	kept map[string]bool

	slots []slot
	jobs  []int
}

type slot struct {
	change *FileChange

	compare       bool
	rel, src, dst string
	done, equal   bool
	err           error
}

func (p *planner) run() {
	if p.opt.DeleteOrphans {
		if p.walk(p.dst, p.visitDestination, p.keepParents) {
			return
		}
		p.dropKeptDirs()
	}

	total := 0
	if p.opt.Progress != nil {
		total = p.countFiles()
	}
	p.progress = &progress{fn: p.opt.Progress, total: total}

	if !p.walk(p.src, p.visitSource, nil) {
		p.compareAll()
	}
	p.assemble()
}

// walk reports true when the context stopped it.
func (p *planner) walk(root string, visit func(rel, path string, info os.FileInfo) error, excluded func(rel string)) bool {
	err := afero.Walk(p.fs, root, func(path string, info os.FileInfo, err error) error {
		if ctxErr := p.ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			p.log.Error("enumerate", "path", path, "err", err)
			p.plan.addErr(pathErr(ErrEnumeration, "list", path, err))
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			p.plan.addErr(pathErr(ErrEnumeration, "rel", path, err))
			return nil
		}
		if p.matcher.IsExcluded(rel, info.IsDir()) {
			p.log.Debug("skip excluded", "path", rel)
			if excluded != nil {
				excluded(rel)
			}
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		return visit(rel, path, info)
	})
	if err == nil || errors.Is(err, filepath.SkipDir) {
		return false
	}
	if ctxErr := p.ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		p.log.Warn("plan cancelled", "root", root)
		p.plan.Cancelled = true
		return true
	}
	p.plan.addErr(pathErr(ErrEnumeration, "walk", root, err))
	return false
}

func (p *planner) visitDestination(rel, path string, info os.FileInfo) error {
	srcPath := filepath.Join(p.src, rel)
	st, err := p.fs.Stat(srcPath)
	if err == nil {
		// The source side reports the mismatch; nothing below can be an
		// orphan of a source file.
		if info.IsDir() && !st.IsDir() {
			return filepath.SkipDir
		}
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		p.log.Error("stat", "path", srcPath, "err", err)
		p.plan.addErr(pathErr(ErrIO, "stat", srcPath, err))
		return nil
	}

	p.plan.Changes = append(p.plan.Changes, FileChange{
		Kind:            Delete,
		RelPath:         rel,
		DestinationPath: path,
		IsDir:           info.IsDir(),
	})
	p.plan.Stats.DeletedFilesInDestination++
	p.log.Debug("plan delete", "path", rel)
	return nil
}

func (p *planner) keepParents(rel string) {
	if exclude.IsBookkeeping(filepath.Base(rel)) {
		return
	}
	if p.kept == nil {
		p.kept = map[string]bool{}
	}
	for dir := filepath.Dir(rel); dir != "."; dir = filepath.Dir(dir) {
		p.kept[dir] = true
	}
}

func (p *planner) dropKeptDirs() {
	if len(p.kept) == 0 {
		return
	}
	changes := p.plan.Changes[:0]
	for _, ch := range p.plan.Changes {
		if ch.Kind == Delete && ch.IsDir && p.kept[ch.RelPath] {
			p.log.Debug("keep directory with excluded entries", "path", ch.RelPath)
			p.plan.Stats.DeletedFilesInDestination--
			continue
		}
		changes = append(changes, ch)
	}
	p.plan.Changes = changes
}

func (p *planner) visitSource(rel, path string, info os.FileInfo) error {
	dstPath := filepath.Join(p.dst, rel)

	if info.IsDir() {
		p.plan.Stats.DirectoriesInSource++
		dst, err := p.fs.Stat(dstPath)
		switch {
		case err == nil && dst.IsDir():
			return nil
		case err == nil:
			p.mismatch(rel, "directory", "file")
			return filepath.SkipDir
		case errors.Is(err, os.ErrNotExist):
			p.slots = append(p.slots, slot{change: &FileChange{
				Kind:            Copy,
				RelPath:         rel,
				SourcePath:      path,
				DestinationPath: dstPath,
				IsDir:           true,
			}})
			return nil
		default:
			p.log.Error("stat", "path", dstPath, "err", err)
			p.plan.addErr(pathErr(ErrIO, "stat", dstPath, err))
			return filepath.SkipDir
		}
	}

	if !info.Mode().IsRegular() {
		p.log.Debug("skip non-regular file", "path", rel, "mode", info.Mode())
		return nil
	}
	p.plan.Stats.FilesInSource++

	dst, err := p.fs.Stat(dstPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		p.slots = append(p.slots, slot{change: &FileChange{
			Kind:            Copy,
			RelPath:         rel,
			SourcePath:      path,
			DestinationPath: dstPath,
		}})
		p.plan.Stats.CopiedFiles++
	case err != nil:
		p.log.Error("stat", "path", dstPath, "err", err)
		p.plan.addErr(pathErr(ErrIO, "stat", dstPath, err))
	case dst.IsDir():
		p.mismatch(rel, "file", "directory")
	case !p.opt.CheckContent:
		p.log.Debug("skip existing", "path", rel)
	default:
		p.jobs = append(p.jobs, len(p.slots))
		p.slots = append(p.slots, slot{compare: true, rel: rel, src: path, dst: dstPath})
		return nil
	}
	p.progress.step(rel)
	return nil
}

func (p *planner) mismatch(rel, srcType, dstType string) {
	err := pathErr(ErrTypeMismatch, "plan", rel,
		fmt.Errorf("%s in source, %s in destination", srcType, dstType))
	p.log.Warn("type mismatch", "path", rel, "source", srcType, "destination", dstType)
	p.plan.addErr(err)
}

func (p *planner) compareAll() {
	if len(p.jobs) == 0 {
		return
	}
	var g errgroup.Group
	g.SetLimit(max(1, p.opt.Workers))
	for _, i := range p.jobs {
		s := &p.slots[i]
		g.Go(func() error {
			if p.ctx.Err() != nil {
				return nil
			}
			s.equal, s.err = p.cmp.Equal(s.src, s.dst, p.opt.Method)
			s.done = true
			p.progress.step(s.rel)
			return nil
		})
	}
	_ = g.Wait()
	if p.ctx.Err() != nil {
		p.log.Warn("plan cancelled during comparison")
		p.plan.Cancelled = true
	}
}

func (p *planner) assemble() {
	for i := range p.slots {
		s := &p.slots[i]
		switch {
		case s.change != nil:
			p.plan.Changes = append(p.plan.Changes, *s.change)
			p.log.Debug("plan copy", "path", s.change.RelPath, "dir", s.change.IsDir)
		case s.compare && s.done:
			if s.err != nil {
				p.log.Error("compare", "path", s.rel, "err", s.err)
				p.plan.addErr(pathErr(ErrIO, "compare", s.rel, s.err))
				continue
			}
			if s.equal {
				continue
			}
			p.plan.Changes = append(p.plan.Changes, FileChange{
				Kind:            Overwrite,
				RelPath:         s.rel,
				SourcePath:      s.src,
				DestinationPath: s.dst,
			})
			p.plan.Stats.OverwrittenFiles++
			p.log.Debug("plan overwrite", "path", s.rel)
		}
	}
}

func (p *planner) countFiles() int {
	n := 0
	_ = afero.Walk(p.fs, p.src, func(path string, info os.FileInfo, err error) error {
		if ctxErr := p.ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil || path == p.src {
			return nil
		}
		rel, err := filepath.Rel(p.src, path)
		if err != nil {
			return nil
		}
		if p.matcher.IsExcluded(rel, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Mode().IsRegular() {
			n++
		}
		return nil
	})
	return n
}

type progress struct {
	mu        gosync.Mutex
	fn        ProgressFunc
	total     int
	processed int
}

func (pr *progress) step(rel string) {
	if pr == nil || pr.fn == nil {
		return
	}
	pr.mu.Lock()
	defer pr.mu.Unlock()
	pr.processed++
	total := max(pr.total, pr.processed)
	pr.fn(ProgressEvent{
		Processed:   pr.processed,
		Total:       total,
		Description: fmt.Sprintf("processing file %d of %d: %s", pr.processed, total, rel),
	})
}
