package extsort

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gosort/extsort/budget"
	"github.com/gosort/extsort/internal/fs"
	"github.com/gosort/extsort/internal/ioerr"
	"github.com/gosort/extsort/internal/scratch"
	"github.com/gosort/extsort/merge"
	"github.com/gosort/extsort/pool"
	"github.com/gosort/extsort/record"
	"github.com/gosort/extsort/run"
	"github.com/gosort/extsort/rungen"
)

const (
	phaseGenerating = "generating"
	phaseMerging    = "merging"
)

// Sort walks cfg.InputDir, treats every regular file under it as a
// sequence of fixed-width int64 records, and writes the fully merged
// sorted sequence of every record it found to cfg.OutputPath.
//
// Sort blocks until the output is complete or the first unrecoverable
// error occurs. On failure, Sort leaves no partially written file at
// OutputPath, and every scratch file Sort created along the way is
// best-effort removed.
func Sort(ctx context.Context, cfg Config, optFns ...Option) error {
	opts := applyOptions(optFns)
	start := time.Now()

	err := sortJob(ctx, cfg, opts)
	opts.metricsCollector.RecordJob(time.Since(start), err)
	return err
}

func sortJob(ctx context.Context, cfg Config, opts options) error {
	filesystem := fs.Default

	scratchDir := opts.scratchDir
	if scratchDir == "" {
		scratchDir = filepath.Join(filepath.Dir(cfg.OutputPath), ".extsort-scratch")
	}
	if scratch.Overlaps(scratchDir, cfg.InputDir) {
		return ErrScratchOverlapsInput
	}

	ns, err := scratch.NewNamespace(filesystem, scratchDir)
	if err != nil {
		return newSortError(KindIOOpen, scratchDir, err)
	}

	fanIn := opts.fanIn
	if opts.probeOpenFiles {
		if limit, ok := probeOpenFileLimit(); ok {
			safe := limit / 4
			if safe < 2 {
				safe = 2
			}
			if fanIn > safe {
				fanIn = safe
			}
		}
	}

	workers := cfg.workers()
	perWorker := budget.PerWorkerRecords(cfg.memoryBytes(), workers, record.Size)
	// A budget smaller than one record could never grant the clamped
	// one-record share, so the cap is raised to at least that share.
	memCap := cfg.memoryBytes()
	if minCap := perWorker * record.Size; memCap < minCap {
		memCap = minCap
	}
	bc := budget.New(memCap, opts.ioBytesPerSecond)

	p := pool.New(workers)
	defer p.Close()

	inputs, err := walkInputs(ctx, filesystem, cfg.InputDir, opts.logger)
	if err != nil {
		ns.CleanupAll()
		return newSortError(KindDirectoryWalk, cfg.InputDir, err)
	}

	opts.logger.LogPhaseStart(ctx, phaseGenerating, workers)
	genStart := time.Now()
	runs, err := generateRuns(ctx, p, filesystem, bc, ns, inputs, perWorker, opts)
	opts.logger.LogPhaseEnd(ctx, phaseGenerating, time.Since(genStart), err)
	if err != nil {
		ns.CleanupAll()
		return err
	}

	opts.logger.LogPhaseStart(ctx, phaseMerging, workers)
	mergeStart := time.Now()
	err = mergeRuns(ctx, p, filesystem, bc, ns, runs, fanIn, cfg.OutputPath, opts)
	opts.logger.LogPhaseEnd(ctx, phaseMerging, time.Since(mergeStart), err)
	if err != nil {
		ns.CleanupAll()
		return err
	}

	return nil
}

// walkInputs recursively lists every regular file under root. A directory
// that cannot be read (other than root itself) is logged and skipped
// rather than failing the whole walk; root itself must be readable.
//
// Symbolic links are ignored, not followed: os.DirEntry.Info() lstats the
// entry, so a symlink's FileMode never reports IsRegular(), and it is
// silently excluded from the input set. A symlinked directory is likewise
// never descended into.
func walkInputs(ctx context.Context, filesystem fs.FileSystem, root string, logger *Logger) ([]string, error) {
	var files []string

	var walk func(dir string, isRoot bool) error
	walk = func(dir string, isRoot bool) error {
		entries, err := filesystem.ReadDir(dir)
		if err != nil {
			if isRoot {
				return err
			}
			logger.ErrorContext(ctx, "skipping unreadable directory", "path", dir, "error", err)
			return nil
		}
		for _, e := range entries {
			p := filepath.Join(dir, e.Name())
			if e.IsDir() {
				if err := walk(p, false); err != nil {
					return err
				}
				continue
			}
			info, err := e.Info()
			if err != nil {
				logger.ErrorContext(ctx, "skipping unreadable entry", "path", p, "error", err)
				continue
			}
			if !info.Mode().IsRegular() {
				continue
			}
			files = append(files, p)
		}
		return nil
	}

	if err := walk(root, true); err != nil {
		return nil, err
	}
	return files, nil
}

// generateRuns fans one Run Producer task per input file out across the
// pool and waits for all of them, the way a round barrier waits for every
// merge group: the first failure cancels the shared context and is
// returned once every in-flight task has stopped.
func generateRuns(ctx context.Context, p *pool.Pool, filesystem fs.FileSystem, bc *budget.Controller, ns *scratch.Namespace, inputs []string, perWorker int64, opts options) (run.Set, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	results := make([]run.Set, len(inputs))
	g, gctx := errgroup.WithContext(ctx)

	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			h, err := pool.Submit(p, func() (run.Set, error) {
				return rungen.Produce(gctx, filesystem, bc, in, perWorker, ns.RunPath)
			})
			if err != nil {
				return newSortError(KindPoolShutdown, in, err)
			}
			runs, err := h.Wait()
			if err != nil {
				return newSortError(classifyErr(err), in, err)
			}
			for j, r := range runs {
				opts.logger.LogRunProduced(gctx, in, j, r.Records)
				opts.metricsCollector.RecordRunProduced(r.Records, 0)
			}
			results[i] = runs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all run.Set
	for _, rs := range results {
		all = append(all, rs...)
	}
	return all, nil
}

// mergeRuns hierarchically merges runs down to a single file in rounds
// bounded by fanIn, then moves that file to outputPath. Each round is a
// barrier: every group in the round must complete before the next round's
// grouping is computed.
func mergeRuns(ctx context.Context, p *pool.Pool, filesystem fs.FileSystem, bc *budget.Controller, ns *scratch.Namespace, runs run.Set, fanIn int, outputPath string, opts options) error {
	if len(runs) == 0 {
		return writeEmptyOutput(filesystem, outputPath)
	}

	current := runs
	round := 0

	for len(current) > 1 {
		groups := partition(current, fanIn)
		opts.logger.LogMergeRound(ctx, round, len(current), len(groups))
		roundStart := time.Now()

		next := make(run.Set, len(groups))
		g, gctx := errgroup.WithContext(ctx)

		for gi, group := range groups {
			gi, group := gi, group
			if len(group) == 1 {
				next[gi] = group[0]
				continue
			}
			g.Go(func() error {
				outPath := ns.MergePath(round, gi)
				h, err := pool.Submit(p, func() (run.Run, error) {
					return merge.Merge(gctx, filesystem, bc, group, outPath)
				})
				var result run.Run
				if err == nil {
					result, err = h.Wait()
				}
				opts.logger.LogMergeGroup(gctx, round, gi, len(group), err)
				if err != nil {
					return newSortError(classifyErr(err), outPath, err)
				}
				next[gi] = result
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}
		opts.metricsCollector.RecordMergeRound(len(groups), time.Since(roundStart))

		for _, group := range groups {
			if len(group) < 2 {
				continue
			}
			for _, r := range group {
				_ = filesystem.Remove(r.Path)
				ns.Forget(r.Path)
			}
		}

		current = next
		round++
	}

	return finalize(filesystem, current[0], outputPath, ns)
}

// partition splits runs into consecutive groups of at most size runs,
// the last group taking whatever remains.
func partition(runs run.Set, size int) []run.Set {
	if size < 2 {
		size = 2
	}
	var groups []run.Set
	for len(runs) > 0 {
		n := size
		if n > len(runs) {
			n = len(runs)
		}
		groups = append(groups, runs[:n])
		runs = runs[n:]
	}
	return groups
}

// finalize moves the single surviving run to outputPath, falling back to a
// byte copy when rename fails (e.g. scratch and output live on different
// filesystems).
func finalize(filesystem fs.FileSystem, final run.Run, outputPath string, ns *scratch.Namespace) error {
	if final.Path == outputPath {
		return nil
	}
	if err := filesystem.Rename(final.Path, outputPath); err == nil {
		ns.Forget(final.Path)
		return nil
	}
	if err := copyFile(filesystem, final.Path, outputPath); err != nil {
		return newSortError(KindRename, outputPath, err)
	}
	_ = filesystem.Remove(final.Path)
	ns.Forget(final.Path)
	return nil
}

func copyFile(filesystem fs.FileSystem, src, dst string) error {
	in, err := filesystem.OpenFile(src, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := filesystem.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = filesystem.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = filesystem.Remove(dst)
		return err
	}
	return nil
}

func writeEmptyOutput(filesystem fs.FileSystem, outputPath string) error {
	f, err := filesystem.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return newSortError(KindIOOpen, outputPath, err)
	}
	return f.Close()
}

// classifyErr maps an error surfaced from rungen or merge onto the error
// taxonomy's Kind values. rungen and merge report every file-operation
// failure as an *ioerr.Error naming the Op that failed, so classification
// is a type assertion and a switch on that field — never a scan of the
// message text, which would misfire on an input path that happens to
// contain a word like "open" or "read".
func classifyErr(err error) Kind {
	switch {
	case errors.Is(err, record.ErrTruncated):
		return KindFormat
	case errors.Is(err, pool.ErrClosed):
		return KindPoolShutdown
	}

	var opErr *ioerr.Error
	if errors.As(err, &opErr) {
		switch opErr.Op {
		case ioerr.OpOpen:
			return KindIOOpen
		case ioerr.OpWrite:
			return KindIOWrite
		case ioerr.OpRead:
			return KindIORead
		}
	}
	return KindIORead
}
