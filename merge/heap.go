package merge

import "container/heap"

// headItem is one stream's current front record: its value and the index
// of the input it came from. The index tie-break keeps the ordering total
// and the merge deterministic with respect to input order — records
// themselves are otherwise indistinguishable.
type headItem struct {
	Value int64
	Index int
}

// headHeap is a min-heap over headItems, ordered by (Value, Index).
type headHeap []headItem

var _ heap.Interface = (*headHeap)(nil)

func (h headHeap) Len() int { return len(h) }

func (h headHeap) Less(i, j int) bool {
	if h[i].Value != h[j].Value {
		return h[i].Value < h[j].Value
	}
	return h[i].Index < h[j].Index
}

func (h headHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *headHeap) Push(x any) {
	*h = append(*h, x.(headItem))
}

func (h *headHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
