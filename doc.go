// Package extsort sorts a dataset of fixed-width 64-bit signed integers
// that collectively exceeds available memory. It reads a directory of
// binary input files and produces a single binary output file containing
// every input value in non-decreasing order, using a classical two-phase
// external merge sort bounded by a caller-supplied memory budget.
//
// # Quick Start
//
//	cfg := extsort.Config{
//	    InputDir:   "./data/in",
//	    OutputPath: "./data/out.bin",
//	    MemoryBytes: 64 << 20,
//	}
//	err := extsort.Sort(context.Background(), cfg)
//
// # Phases
//
// Run generation streams each input file through a per-worker memory share,
// emitting sorted runs to a scratch directory. Hierarchical merge then
// combines those runs — in bounded-fan-in rounds — into a single output
// file. See [Config] for the knobs controlling both phases.
//
// # Durability and scope
//
// extsort has no notion of persisted job state: a failed run leaves no
// valid output at OutputPath, and a restarted job starts from scratch.
// It operates entirely on the local files it finds under InputDir;
// it is not a distributed or networked system.
package extsort
