// Package run defines the Run and Run Set types shared between the Run
// Producer and the K-way File Merger: a run is a file whose records are in
// non-decreasing order, identified only by its path and record count.
package run

// Run is a sorted file on disk plus the in-memory metadata needed to merge
// or delete it. A Run is owned by whichever component currently holds it
// and is responsible for deleting it once consumed.
type Run struct {
	Path    string
	Records int64
}

// Set is an unordered collection of runs. Order within the set never
// affects correctness — only the multiset of underlying values does.
type Set []Run

// TotalRecords sums the record counts of every run in the set.
func (s Set) TotalRecords() int64 {
	var total int64
	for _, r := range s {
		total += r.Records
	}
	return total
}
