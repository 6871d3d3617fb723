// Package record defines the on-disk representation of a sort key: an
// 8-byte, little-endian, signed 64-bit integer, and buffered helpers for
// streaming whole files of them without one syscall per record.
package record

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

// Size is the width in bytes of a single on-disk record.
const Size = 8

// ErrTruncated indicates a file length that is not a multiple of [Size].
var ErrTruncated = errors.New("record: file length is not a multiple of 8 bytes")

// ByteOrder is the fixed wire format for all records and internal headers.
// Pinned to little-endian so output is portable across machines regardless
// of host byte order.
var ByteOrder = binary.LittleEndian

// Reader streams int64 records from an underlying byte stream, buffering
// reads so that callers don't pay one syscall per 8-byte record.
type Reader struct {
	br  *bufio.Reader
	buf [Size]byte
}

// NewReader wraps r with a read buffer sized for streaming record access.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, 256*1024)}
}

// Next returns the next record, or io.EOF if the stream is exhausted on a
// record boundary. A partial trailing record yields [ErrTruncated].
func (r *Reader) Next() (int64, error) {
	n, err := io.ReadFull(r.br, r.buf[:])
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) || n > 0 {
			return 0, ErrTruncated
		}
		return 0, err
	}
	return int64(ByteOrder.Uint64(r.buf[:])), nil
}

// Writer streams int64 records to an underlying byte stream, buffering
// writes so that callers don't pay one syscall per 8-byte record.
type Writer struct {
	bw  *bufio.Writer
	buf [Size]byte
}

// NewWriter wraps w with a write buffer sized for streaming record access.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriterSize(w, 256*1024)}
}

// Write appends one record to the stream.
func (w *Writer) Write(v int64) error {
	ByteOrder.PutUint64(w.buf[:], uint64(v))
	_, err := w.bw.Write(w.buf[:])
	return err
}

// WriteAll appends every value in vs to the stream, in order.
func (w *Writer) WriteAll(vs []int64) error {
	for _, v := range vs {
		if err := w.Write(v); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.bw.Flush()
}

// Count returns the number of whole records represented by size bytes, and
// an error if size is not a multiple of [Size].
func Count(size int64) (int64, error) {
	if size%Size != 0 {
		return 0, ErrTruncated
	}
	return size / Size, nil
}
