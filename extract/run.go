package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/srctrans/comkit/comment"
	"github.com/srctrans/comkit/scan"
)

// RunOptions controls a whole extraction run.
type RunOptions struct {
	// Root is the directory intermediary/output paths are computed
	// relative to.
	Root string
	// Scan configures marker recognition and normalization.
	Scan scan.Options
	// MaxConcurrent is the number of per-file workers (<=1 means
	// sequential). Files are independent: indexes embed the filename, so
	// parallel extraction contends only on the uniqueness registry.
	MaxConcurrent int
	// OnLog and OnError receive progress and per-file diagnostics.
	OnLog   func(format string, args ...any)
	OnError func(format string, args ...any)
}

func (o RunOptions) logf(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o RunOptions) errorf(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	}
}

// Skip records a file that was left out of the run with the reason.
type Skip struct {
	Path string
	Err  error
}

// Result is the outcome of an extraction run.
type Result struct {
	// Files holds the per-file results, sorted by path.
	Files []*FileResult
	// Skipped lists files dropped by per-file failures (unterminated
	// block comments, unreadable files). The rest of the run proceeds.
	Skipped []Skip
}

// Units returns the comment units of all extracted files, in file order.
func (r *Result) Units() []comment.Unit {
	units := make([]comment.Unit, 0, len(r.Files))
	for _, fr := range r.Files {
		units = append(units, fr.Unit)
	}
	return units
}

// SegmentCount returns the total number of extracted segments.
func (r *Result) SegmentCount() int {
	n := 0
	for _, fr := range r.Files {
		for _, b := range fr.Unit.Blocks {
			n += len(b.Segments)
		}
	}
	return n
}

// Run extracts comments from files. Per-file failures are reported through
// opts.OnError and recorded in Result.Skipped; an index collision between
// files is a hard error because it would corrupt every export.
func Run(ctx context.Context, files []string, opts RunOptions) (*Result, error) {
	max := opts.MaxConcurrent
	if max <= 0 {
		max = 1
	}

	registry := comment.NewRegistry()
	res := &Result{}

	sem := make(chan struct{}, max)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	var errOnce sync.Once

	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)

		go func(path string) {
			defer func() {
				<-sem
				wg.Done()
			}()

			fr, err := runOne(path, opts, registry)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if _, skip := err.(*scan.UnterminatedBlockError); skip {
					opts.errorf("%s: %v (file skipped)", path, err)
					res.Skipped = append(res.Skipped, Skip{Path: path, Err: err})
					return
				}
				if os.IsNotExist(err) || os.IsPermission(err) {
					opts.errorf("reading %s: %v (file skipped)", path, err)
					res.Skipped = append(res.Skipped, Skip{Path: path, Err: err})
					return
				}
				errOnce.Do(func() { firstErr = err })
				return
			}
			res.Files = append(res.Files, fr)
		}(path)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Completion order is nondeterministic under parallel extraction;
	// exports need file order.
	sort.Slice(res.Files, func(i, j int) bool { return res.Files[i].Path < res.Files[j].Path })

	opts.logf("Extracted %d segment(s) from %d file(s)", res.SegmentCount(), len(res.Files))
	return res, nil
}

func runOne(path string, opts RunOptions, registry *comment.Registry) (*FileResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	rel := relPath(opts.Root, path)
	fr, err := File(path, rel, string(data), opts.Scan)
	if err != nil {
		return nil, err
	}

	for _, b := range fr.Unit.Blocks {
		for _, sg := range b.Segments {
			if err := registry.Add(sg.Index, path); err != nil {
				return nil, err
			}
		}
	}
	return fr, nil
}

// relPath maps a discovered file under the run root; files outside the
// root fall back to their base name so the mirror tree stays rooted.
func relPath(root, path string) string {
	if root == "" {
		root = "."
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || filepath.IsAbs(rel) || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator) {
		return filepath.Base(path)
	}
	return rel
}

// WriteTree writes every intermediary file under dir, mirroring the
// relative paths of the originals.
func WriteTree(res *Result, dir string) error {
	for _, fr := range res.Files {
		dest := filepath.Join(dir, fr.Rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
		}
		if err := os.WriteFile(dest, []byte(fr.Intermediary), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", dest, err)
		}
	}
	return nil
}
