package median

import (
	"golang.org/x/exp/constraints"

	"github.com/l33tquant/ta-statistics/pkg/floatorder"
)

// side is one half of the tracker: a binary heap plus the bookkeeping for
// values that were removed logically but still sit in the heap storage.
type side[T constraints.Float] struct {
	data       []T
	pending    map[floatorder.Key]int
	tombstones int
	live       int
	maxHeap    bool
}

func newSide[T constraints.Float](reserve int, maxHeap bool) side[T] {
	return side[T]{
		data:    make([]T, 0, reserve),
		pending: make(map[floatorder.Key]int),
		maxHeap: maxHeap,
	}
}

func (h *side[T]) before(a, b T) bool {
	c := floatorder.Compare(a, b)
	if h.maxHeap {
		return c > 0
	}
	return c < 0
}

func (h *side[T]) top() T { return h.data[0] }

func (h *side[T]) push(v T) {
	h.data = append(h.data, v)
	h.up(len(h.data) - 1)
}

func (h *side[T]) pop() T {
	n := len(h.data) - 1
	v := h.data[0]
	h.data[0] = h.data[n]
	h.data = h.data[:n]
	if n > 0 {
		h.down(0)
	}
	return v
}

func (h *side[T]) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.before(h.data[i], h.data[parent]) {
			return
		}
		h.data[i], h.data[parent] = h.data[parent], h.data[i]
		i = parent
	}
}

func (h *side[T]) down(i int) {
	n := len(h.data)
	for {
		best := i
		l, r := 2*i+1, 2*i+2
		if l < n && h.before(h.data[l], h.data[best]) {
			best = l
		}
		if r < n && h.before(h.data[r], h.data[best]) {
			best = r
		}
		if best == i {
			return
		}
		h.data[i], h.data[best] = h.data[best], h.data[i]
		i = best
	}
}

func (h *side[T]) heapify() {
	for i := len(h.data)/2 - 1; i >= 0; i-- {
		h.down(i)
	}
}

// purge pops tombstoned values off the top so that top() is live whenever
// live > 0.
func (h *side[T]) purge() {
	for len(h.data) > 0 {
		k := floatorder.KeyOf(h.data[0])
		n := h.pending[k]
		if n == 0 {
			return
		}
		h.pop()
		if n == 1 {
			delete(h.pending, k)
		} else {
			h.pending[k] = n - 1
		}
		h.tombstones--
	}
}

// holds reports whether at least one live copy of v is stored here.
func (h *side[T]) holds(v T) bool {
	k := floatorder.KeyOf(v)
	copies := 0
	for _, x := range h.data {
		if floatorder.KeyOf(x) == k {
			copies++
		}
	}
	return copies-h.pending[k] > 0
}

func (h *side[T]) mark(v T) {
	h.pending[floatorder.KeyOf(v)]++
	h.tombstones++
	h.live--
}

// compact drops every tombstone from storage and rebuilds the heap.
func (h *side[T]) compact(reserve int) {
	kept := h.data[:0]
	for _, x := range h.data {
		k := floatorder.KeyOf(x)
		if n := h.pending[k]; n > 0 {
			h.pending[k] = n - 1
			continue
		}
		kept = append(kept, x)
	}
	clear(h.data[len(kept):])
	h.data = kept
	clear(h.pending)
	h.tombstones = 0

	if cap(h.data) > reserve && len(h.data) <= reserve {
		shrunk := make([]T, len(h.data), reserve)
		copy(shrunk, h.data)
		h.data = shrunk
	}
	h.heapify()
}

func (h *side[T]) reset() {
	h.data = h.data[:0]
	clear(h.pending)
	h.tombstones = 0
	h.live = 0
}
