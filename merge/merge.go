// Package merge implements the K-way File Merger: given a list of sorted
// run files, it writes their merged sorted sequence to a single output
// file using a min-heap over stream heads, closing every handle before
// returning.
package merge

import (
	"container/heap"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gosort/extsort/budget"
	"github.com/gosort/extsort/internal/fs"
	"github.com/gosort/extsort/internal/ioerr"
	"github.com/gosort/extsort/record"
	"github.com/gosort/extsort/run"
)

// Merge combines inputs (already sorted, non-empty list) into a single
// sorted file at outputPath. A single-element input list degenerates to a
// byte-wise copy. Input run files are not deleted by Merge — that is the
// caller's responsibility once Merge resolves successfully.
//
// On any failure, the partial output file is deleted and every open input
// handle is closed before the error is returned.
func Merge(ctx context.Context, filesystem fs.FileSystem, bc *budget.Controller, inputs run.Set, outputPath string) (run.Run, error) {
	if len(inputs) == 0 {
		return run.Run{}, fmt.Errorf("merge: %s: no inputs", outputPath)
	}

	if len(inputs) == 1 {
		return copyOne(filesystem, inputs[0], outputPath)
	}

	readers := make([]*record.Reader, len(inputs))
	files := make([]fs.File, 0, len(inputs))

	cleanup := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	for i, in := range inputs {
		f, err := filesystem.OpenFile(in.Path, os.O_RDONLY, 0)
		if err != nil {
			cleanup()
			return run.Run{}, ioerr.New(ioerr.OpOpen, in.Path, err)
		}
		files = append(files, f)
		readers[i] = record.NewReader(f)
	}

	out, err := filesystem.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		cleanup()
		return run.Run{}, ioerr.New(ioerr.OpOpen, outputPath, err)
	}
	w := record.NewWriter(out)

	fail := func(err error) (run.Run, error) {
		cleanup()
		_ = out.Close()
		_ = filesystem.Remove(outputPath)
		return run.Run{}, err
	}

	h := make(headHeap, 0, len(inputs))
	for i, r := range readers {
		v, err := r.Next()
		if err == io.EOF {
			continue
		}
		if err != nil {
			return fail(ioerr.New(ioerr.OpRead, inputs[i].Path, err))
		}
		h = append(h, headItem{Value: v, Index: i})
	}
	heap.Init(&h)

	var written int64
	for h.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		top := heap.Pop(&h).(headItem)
		if err := w.Write(top.Value); err != nil {
			return fail(ioerr.New(ioerr.OpWrite, outputPath, err))
		}
		written++

		if err := bc.AcquireIO(ctx, record.Size); err != nil {
			return fail(fmt.Errorf("merge: io budget: %w", err))
		}

		v, err := readers[top.Index].Next()
		if err == io.EOF {
			continue
		}
		if err != nil {
			return fail(ioerr.New(ioerr.OpRead, inputs[top.Index].Path, err))
		}
		heap.Push(&h, headItem{Value: v, Index: top.Index})
	}

	if err := w.Flush(); err != nil {
		return fail(ioerr.New(ioerr.OpWrite, outputPath, err))
	}

	cleanup()
	if err := out.Close(); err != nil {
		_ = filesystem.Remove(outputPath)
		return run.Run{}, ioerr.New(ioerr.OpWrite, outputPath, err)
	}

	return run.Run{Path: outputPath, Records: written}, nil
}

func copyOne(filesystem fs.FileSystem, in run.Run, outputPath string) (run.Run, error) {
	src, err := filesystem.OpenFile(in.Path, os.O_RDONLY, 0)
	if err != nil {
		return run.Run{}, ioerr.New(ioerr.OpOpen, in.Path, err)
	}
	defer src.Close()

	dst, err := filesystem.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return run.Run{}, ioerr.New(ioerr.OpOpen, outputPath, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = filesystem.Remove(outputPath)
		return run.Run{}, ioerr.New(ioerr.OpWrite, outputPath, err)
	}
	if err := dst.Close(); err != nil {
		_ = filesystem.Remove(outputPath)
		return run.Run{}, ioerr.New(ioerr.OpWrite, outputPath, err)
	}

	return run.Run{Path: outputPath, Records: in.Records}, nil
}
