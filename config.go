package extsort

import "runtime"

// DefaultFanIn is the design default per-round merge fan-in F: the number
// of runs combined by one merge task. Chosen to stay well under typical OS
// open-file limits while minimizing merge rounds.
const DefaultFanIn = 128

// DefaultMemoryBytes is the default total memory budget M when a Config
// leaves MemoryBytes unset.
const DefaultMemoryBytes = 64 << 20 // 64 MiB

// Config is the immutable job configuration for one Sort call: the input
// directory, output path, and the resource bounds that shape run generation
// and merging.
type Config struct {
	// InputDir is walked recursively; every regular file under it is
	// treated as a sequence of 8-byte records.
	InputDir string

	// OutputPath is where the final sorted output is written. Any existing
	// file at this path is overwritten.
	OutputPath string

	// MemoryBytes is the total memory budget M, partitioned across Workers.
	// Defaults to DefaultMemoryBytes if <= 0.
	MemoryBytes int64

	// Workers is the worker pool size W. Defaults to runtime.GOMAXPROCS(0)
	// if <= 0, with a hard fallback to 1.
	Workers int
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	n := runtime.GOMAXPROCS(0)
	if n <= 0 {
		n = 1
	}
	return n
}

func (c Config) memoryBytes() int64 {
	if c.MemoryBytes > 0 {
		return c.MemoryBytes
	}
	return DefaultMemoryBytes
}
