// Package median maintains the median of a sliding window with two heaps.
//
// The lower half lives in a max-heap and the upper half in a min-heap. Values
// leaving the window are not searched for inside the heaps; they are recorded
// as pending removals and discarded when they surface at a heap top. Storage
// is compacted once tombstones outnumber live values two to one.
package median

import (
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/l33tquant/ta-statistics/pkg/floatorder"
)

type Tracker[T constraints.Float] struct {
	lower   side[T]
	upper   side[T]
	reserve int
}

func New[T constraints.Float](period int) *Tracker[T] {
	if period <= 0 {
		panic(fmt.Sprintf("median: period must be positive, got %d", period))
	}
	reserve := 3*(period+1) + 1
	return &Tracker[T]{
		lower:   newSide[T](reserve, true),
		upper:   newSide[T](reserve, false),
		reserve: reserve,
	}
}

func (m *Tracker[T]) Len() int { return m.lower.live + m.upper.live }

func (m *Tracker[T]) IsEmpty() bool { return m.Len() == 0 }

func (m *Tracker[T]) Push(v T) {
	m.lower.purge()
	if m.lower.live == 0 || floatorder.Compare(v, m.lower.top()) <= 0 {
		m.lower.push(v)
		m.lower.live++
	} else {
		m.upper.push(v)
		m.upper.live++
	}
	m.rebalance()
}

// Remove takes one copy of v out of the tracked multiset. It reports false,
// changing nothing, when no live copy of v is present.
func (m *Tracker[T]) Remove(v T) bool {
	m.lower.purge()
	m.upper.purge()

	h := &m.upper
	if m.lower.live > 0 && floatorder.Compare(v, m.lower.top()) <= 0 {
		h = &m.lower
	}
	if !h.holds(v) {
		return false
	}
	h.mark(v)

	if m.lower.tombstones+m.upper.tombstones > 2*m.Len() {
		m.lower.compact(m.reserve)
		m.upper.compact(m.reserve)
	}
	m.rebalance()
	return true
}

// Median returns the middle value, or the mean of the two middle values for
// an even count.
func (m *Tracker[T]) Median() (T, bool) {
	m.rebalance()
	n := m.Len()
	if n == 0 {
		var zero T
		return zero, false
	}
	if n%2 == 1 {
		return m.lower.top(), true
	}
	return (m.lower.top() + m.upper.top()) / 2, true
}

func (m *Tracker[T]) rebalance() {
	m.lower.purge()
	m.upper.purge()

	target := (m.Len() + 1) / 2
	for m.lower.live > target {
		m.upper.push(m.lower.pop())
		m.lower.live--
		m.upper.live++
		m.lower.purge()
	}
	for m.lower.live < target {
		m.lower.push(m.upper.pop())
		m.upper.live--
		m.lower.live++
		m.upper.purge()
	}
}

func (m *Tracker[T]) Reset() {
	m.lower.reset()
	m.upper.reset()
}
