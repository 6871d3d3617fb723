// Package budget tracks the global memory budget M for run generation and
// optionally throttles I/O throughput, mirroring the resource controller
// pattern of gating concurrent work with weighted semaphores and rate
// limiters.
package budget

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Controller gates in-flight record-buffer bytes against a global cap M and
// optionally throttles I/O throughput shared across producers and mergers.
//
// The memory semaphore caps the sum of buffer bytes held by all producers
// at once. The size of each producer's share is fixed by the caller (see
// PerWorkerRecords); a share released by a finished producer lets another
// producer start, not buffer more.
type Controller struct {
	memSem    *semaphore.Weighted // nil if unlimited
	ioLimiter *rate.Limiter       // nil if unlimited
}

// New creates a Controller with a hard memory cap of memoryBytes. If
// memoryBytes <= 0, memory is untracked (AcquireMemory is a no-op). If
// ioBytesPerSec > 0, I/O throughput is rate-limited to that many bytes/sec.
func New(memoryBytes int64, ioBytesPerSec int64) *Controller {
	c := &Controller{}
	if memoryBytes > 0 {
		c.memSem = semaphore.NewWeighted(memoryBytes)
	}
	if ioBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(ioBytesPerSec), int(ioBytesPerSec))
	}
	return c
}

// AcquireMemory blocks until bytes of buffer space is available or ctx is
// canceled. A nil Controller or non-positive bytes is always a no-op.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || c.memSem == nil || bytes <= 0 {
		return nil
	}
	return c.memSem.Acquire(ctx, bytes)
}

// ReleaseMemory returns bytes of buffer space to the budget.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || c.memSem == nil || bytes <= 0 {
		return
	}
	c.memSem.Release(bytes)
}

// AcquireIO waits, if an I/O limiter is configured, until bytes worth of
// throughput is available. Requests larger than the limiter's burst are
// waited for in burst-sized chunks.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil || bytes <= 0 {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := bytes
		if n > burst {
			n = burst
		}
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

// PerWorkerRecords computes floor(M / (W * recordSize)), clamped to at
// least 1 so pathologically small budgets still make forward progress.
func PerWorkerRecords(memoryBytes int64, workers int, recordSize int64) int64 {
	if workers <= 0 {
		workers = 1
	}
	if recordSize <= 0 {
		recordSize = 1
	}
	share := memoryBytes / (int64(workers) * recordSize)
	if share < 1 {
		share = 1
	}
	return share
}
