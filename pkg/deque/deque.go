// Package deque is a fixed-capacity double-ended queue over a ring slice.
// It never grows: pushing at the back of a full deque drops the front element.
package deque

import (
	"fmt"
	"iter"
)

type Deque[T any] struct {
	buf  []T
	head int
	size int
}

func New[T any](capacity int) *Deque[T] {
	if capacity <= 0 {
		panic(fmt.Sprintf("deque: capacity must be positive, got %d", capacity))
	}
	return &Deque[T]{buf: make([]T, capacity)}
}

func (d *Deque[T]) index(i int) int {
	return (d.head + i) % len(d.buf)
}

// PushBack appends v. When the deque is full the front element is evicted
// and returned with ok set.
func (d *Deque[T]) PushBack(v T) (evicted T, ok bool) {
	if d.size == len(d.buf) {
		evicted, ok = d.PopFront()
	}
	d.buf[d.index(d.size)] = v
	d.size++
	return evicted, ok
}

// PushFront prepends v. It reports false and leaves the deque untouched when full.
func (d *Deque[T]) PushFront(v T) bool {
	if d.size == len(d.buf) {
		return false
	}
	d.head = (d.head - 1 + len(d.buf)) % len(d.buf)
	d.buf[d.head] = v
	d.size++
	return true
}

func (d *Deque[T]) PopFront() (T, bool) {
	var zero T
	if d.size == 0 {
		return zero, false
	}
	v := d.buf[d.head]
	d.buf[d.head] = zero
	d.head = d.index(1)
	d.size--
	return v, true
}

func (d *Deque[T]) PopBack() (T, bool) {
	var zero T
	if d.size == 0 {
		return zero, false
	}
	i := d.index(d.size - 1)
	v := d.buf[i]
	d.buf[i] = zero
	d.size--
	return v, true
}

func (d *Deque[T]) Front() (T, bool) {
	if d.size == 0 {
		var zero T
		return zero, false
	}
	return d.buf[d.head], true
}

func (d *Deque[T]) Back() (T, bool) {
	if d.size == 0 {
		var zero T
		return zero, false
	}
	return d.buf[d.index(d.size-1)], true
}

// At returns the i-th element from the front.
func (d *Deque[T]) At(i int) T {
	if i < 0 || i >= d.size {
		panic(fmt.Sprintf("deque: index %d out of range [0,%d)", i, d.size))
	}
	return d.buf[d.index(i)]
}

func (d *Deque[T]) Len() int { return d.size }

func (d *Deque[T]) Cap() int { return len(d.buf) }

func (d *Deque[T]) IsEmpty() bool { return d.size == 0 }

func (d *Deque[T]) IsFull() bool { return d.size == len(d.buf) }

// All iterates front to back.
func (d *Deque[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := 0; i < d.size; i++ {
			if !yield(d.buf[d.index(i)]) {
				return
			}
		}
	}
}

func (d *Deque[T]) Reset() {
	clear(d.buf)
	d.head = 0
	d.size = 0
}
