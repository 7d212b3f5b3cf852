// Package ringbuf holds the most recent N samples of a stream in a fixed slice.
package ringbuf

import (
	"fmt"
	"iter"
)

// Buffer is a circular buffer of fixed capacity. Once full, every Push
// overwrites the oldest element and hands it back to the caller.
type Buffer[T any] struct {
	values []T
	head   int // index of the oldest element
	size   int
}

func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		panic(fmt.Sprintf("ringbuf: capacity must be positive, got %d", capacity))
	}
	return &Buffer[T]{values: make([]T, capacity)}
}

// Push appends v. If the buffer was already full the overwritten oldest value
// is returned with ok set.
func (b *Buffer[T]) Push(v T) (evicted T, ok bool) {
	if b.size < len(b.values) {
		b.values[(b.head+b.size)%len(b.values)] = v
		b.size++
		return evicted, false
	}

	evicted = b.values[b.head]
	b.values[b.head] = v
	b.head = (b.head + 1) % len(b.values)
	return evicted, true
}

func (b *Buffer[T]) Len() int { return b.size }

func (b *Buffer[T]) Cap() int { return len(b.values) }

func (b *Buffer[T]) IsFull() bool { return b.size == len(b.values) }

func (b *Buffer[T]) IsEmpty() bool { return b.size == 0 }

// At returns the i-th element counting from the oldest.
func (b *Buffer[T]) At(i int) T {
	if i < 0 || i >= b.size {
		panic(fmt.Sprintf("ringbuf: index %d out of range [0,%d)", i, b.size))
	}
	return b.values[(b.head+i)%len(b.values)]
}

func (b *Buffer[T]) Oldest() (T, bool) {
	if b.size == 0 {
		var zero T
		return zero, false
	}
	return b.values[b.head], true
}

func (b *Buffer[T]) Newest() (T, bool) {
	if b.size == 0 {
		var zero T
		return zero, false
	}
	return b.values[(b.head+b.size-1)%len(b.values)], true
}

// All iterates oldest to newest.
func (b *Buffer[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := 0; i < b.size; i++ {
			if !yield(b.values[(b.head+i)%len(b.values)]) {
				return
			}
		}
	}
}

// AppendTo appends the window, oldest first, to dst.
func (b *Buffer[T]) AppendTo(dst []T) []T {
	first := b.values[b.head:min(b.head+b.size, len(b.values))]
	dst = append(dst, first...)
	if rest := b.size - len(first); rest > 0 {
		dst = append(dst, b.values[:rest]...)
	}
	return dst
}

// Reset empties the buffer, keeping its storage.
func (b *Buffer[T]) Reset() {
	clear(b.values)
	b.head = 0
	b.size = 0
}
