// Package monoqueue tracks the sliding-window minimum or maximum in amortised
// O(1) per push. Entries are kept in a monotonic deque tagged with their
// arrival position so that expired candidates can be dropped from the front.
package monoqueue

import (
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/l33tquant/ta-statistics/pkg/deque"
	"github.com/l33tquant/ta-statistics/pkg/floatorder"
)

// Policy decides whether an incoming value makes the candidate at the back of
// the deque useless.
type Policy[T constraints.Float] interface {
	Evicts(back, incoming T) bool
}

// Min keeps the window minimum at the front.
type Min[T constraints.Float] struct{}

func (Min[T]) Evicts(back, incoming T) bool {
	return floatorder.Compare(back, incoming) >= 0
}

// Max keeps the window maximum at the front.
type Max[T constraints.Float] struct{}

func (Max[T]) Evicts(back, incoming T) bool {
	return floatorder.Compare(back, incoming) <= 0
}

type entry[T any] struct {
	value T
	pos   int
}

type Queue[T constraints.Float, P Policy[T]] struct {
	policy  P
	entries *deque.Deque[entry[T]]
	window  int
	count   int
}

func New[T constraints.Float, P Policy[T]](window int) *Queue[T, P] {
	if window <= 0 {
		panic(fmt.Sprintf("monoqueue: window must be positive, got %d", window))
	}
	return &Queue[T, P]{
		entries: deque.New[entry[T]](window),
		window:  window,
	}
}

func NewMin[T constraints.Float](window int) *Queue[T, Min[T]] {
	return New[T, Min[T]](window)
}

func NewMax[T constraints.Float](window int) *Queue[T, Max[T]] {
	return New[T, Max[T]](window)
}

func (q *Queue[T, P]) Push(v T) {
	if q.count >= q.window {
		for {
			front, ok := q.entries.Front()
			if !ok || front.pos > q.count-q.window {
				break
			}
			q.entries.PopFront()
		}
	}

	for {
		back, ok := q.entries.Back()
		if !ok || !q.policy.Evicts(back.value, v) {
			break
		}
		q.entries.PopBack()
	}

	q.entries.PushBack(entry[T]{value: v, pos: q.count})
	q.count++
}

// Front returns the current window extreme.
func (q *Queue[T, P]) Front() (T, bool) {
	e, ok := q.entries.Front()
	return e.value, ok
}

// Len is the number of retained candidates, not the window size.
func (q *Queue[T, P]) Len() int { return q.entries.Len() }

func (q *Queue[T, P]) Window() int { return q.window }

func (q *Queue[T, P]) Reset() {
	q.entries.Reset()
	q.count = 0
}
