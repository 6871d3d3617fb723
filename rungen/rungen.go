// Package rungen implements the Run Producer: it streams one input file
// through a bounded in-memory buffer, emitting one or more sorted runs
// whose sizes are bounded by a per-worker memory share.
package rungen

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/gosort/extsort/budget"
	"github.com/gosort/extsort/internal/fs"
	"github.com/gosort/extsort/internal/ioerr"
	"github.com/gosort/extsort/record"
	"github.com/gosort/extsort/run"
)

// PathNamer names the fresh temporary run file for the localIndex-th buffer
// fill of an input file, so naming policy stays with the caller's scratch
// namespace rather than being hardcoded here.
type PathNamer func(inputPath string, localIndex int) string

// Produce reads inputPath sequentially, filling a buffer of up to
// capacityRecords records at a time, sorting it in place, and flushing it to
// a freshly named run file. It returns the metadata for every run it wrote.
// Never retains any run's data in memory after returning.
//
// An empty input yields a nil, non-error Set (zero runs). A file whose
// length is not a multiple of 8 is reported as record.ErrTruncated; no
// partially written run is left behind for the failing fill.
func Produce(ctx context.Context, filesystem fs.FileSystem, bc *budget.Controller, inputPath string, capacityRecords int64, namer PathNamer) (run.Set, error) {
	if capacityRecords < 1 {
		capacityRecords = 1
	}

	in, err := filesystem.OpenFile(inputPath, os.O_RDONLY, 0)
	if err != nil {
		return nil, ioerr.New(ioerr.OpOpen, inputPath, err)
	}
	defer in.Close()

	if err := bc.AcquireMemory(ctx, capacityRecords*record.Size); err != nil {
		return nil, fmt.Errorf("rungen: acquire memory budget: %w", err)
	}
	defer bc.ReleaseMemory(capacityRecords * record.Size)

	r := record.NewReader(in)
	buf := make([]int64, 0, capacityRecords)

	var runs run.Set
	localIndex := 0

	for {
		buf = buf[:0]
		for int64(len(buf)) < capacityRecords {
			v, err := r.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, ioerr.New(ioerr.OpRead, inputPath, err)
			}
			buf = append(buf, v)
		}

		if len(buf) == 0 {
			break
		}

		if err := bc.AcquireIO(ctx, len(buf)*record.Size); err != nil {
			return nil, fmt.Errorf("rungen: io budget: %w", err)
		}

		sort.Slice(buf, func(i, j int) bool { return buf[i] < buf[j] })

		path := namer(inputPath, localIndex)
		if err := writeRun(filesystem, path, buf); err != nil {
			return nil, err
		}

		runs = append(runs, run.Run{Path: path, Records: int64(len(buf))})
		localIndex++

		if int64(len(buf)) < capacityRecords {
			break
		}
	}

	return runs, nil
}

func writeRun(filesystem fs.FileSystem, path string, values []int64) (err error) {
	f, err := filesystem.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return ioerr.New(ioerr.OpOpen, path, err)
	}
	defer func() {
		cerr := f.Close()
		if err == nil && cerr != nil {
			err = ioerr.New(ioerr.OpWrite, path, cerr)
		}
	}()

	w := record.NewWriter(f)
	if werr := w.WriteAll(values); werr != nil {
		_ = filesystem.Remove(path)
		return ioerr.New(ioerr.OpWrite, path, werr)
	}
	if werr := w.Flush(); werr != nil {
		_ = filesystem.Remove(path)
		return ioerr.New(ioerr.OpWrite, path, werr)
	}
	return nil
}
