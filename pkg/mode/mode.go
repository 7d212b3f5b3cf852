// Package mode tracks the most frequent value of a sliding window.
//
// Each distinct value carries a count and sits in the bucket for that count.
// The mode is the smallest value in the highest non-empty bucket, and it only
// needs to be searched for again when that bucket loses its current mode.
package mode

import (
	"fmt"
	"slices"

	"golang.org/x/exp/constraints"

	"github.com/l33tquant/ta-statistics/pkg/floatorder"
)

type counted[T any] struct {
	value T
	n     int
}

type Tracker[T constraints.Float] struct {
	freq     map[floatorder.Key]counted[T]
	buckets  []map[floatorder.Key]T // index is the frequency; 0 is unused
	modeFreq int
	mode     T
	count    int
}

func New[T constraints.Float](period int) *Tracker[T] {
	if period <= 0 {
		panic(fmt.Sprintf("mode: period must be positive, got %d", period))
	}
	t := &Tracker[T]{
		freq:    make(map[floatorder.Key]counted[T], period+1),
		buckets: make([]map[floatorder.Key]T, 1, period+2),
	}
	return t
}

func (t *Tracker[T]) bucket(n int) map[floatorder.Key]T {
	for len(t.buckets) <= n {
		t.buckets = append(t.buckets, make(map[floatorder.Key]T))
	}
	return t.buckets[n]
}

func (t *Tracker[T]) Push(v T) {
	k := floatorder.KeyOf(v)
	c, ok := t.freq[k]
	if ok {
		delete(t.buckets[c.n], k)
	} else {
		c.value = v
	}
	c.n++
	t.bucket(c.n)[k] = c.value
	t.freq[k] = c
	t.count++

	switch {
	case c.n > t.modeFreq:
		t.modeFreq = c.n
		t.mode = c.value
	case c.n == t.modeFreq && floatorder.Less(c.value, t.mode):
		t.mode = c.value
	}
}

// Pop removes one occurrence of v. It reports false when v is not tracked.
func (t *Tracker[T]) Pop(v T) bool {
	k := floatorder.KeyOf(v)
	c, ok := t.freq[k]
	if !ok {
		return false
	}
	delete(t.buckets[c.n], k)
	was := c.n
	c.n--
	if c.n == 0 {
		delete(t.freq, k)
	} else {
		t.buckets[c.n][k] = c.value
		t.freq[k] = c
	}
	t.count--

	if was == t.modeFreq && floatorder.KeyOf(t.mode) == k {
		t.recompute()
	}
	return true
}

func (t *Tracker[T]) recompute() {
	if len(t.buckets[t.modeFreq]) == 0 {
		t.modeFreq--
	}
	if t.modeFreq == 0 {
		var zero T
		t.mode = zero
		return
	}
	first := true
	for _, v := range t.buckets[t.modeFreq] {
		if first || floatorder.Less(v, t.mode) {
			t.mode = v
			first = false
		}
	}
}

// Mode returns the most frequent value, breaking ties toward the smallest.
func (t *Tracker[T]) Mode() (T, bool) {
	if t.modeFreq == 0 {
		var zero T
		return zero, false
	}
	return t.mode, true
}

// Modes returns every value sharing the highest frequency, ascending.
func (t *Tracker[T]) Modes() []T {
	if t.modeFreq == 0 {
		return nil
	}
	out := make([]T, 0, len(t.buckets[t.modeFreq]))
	for _, v := range t.buckets[t.modeFreq] {
		out = append(out, v)
	}
	slices.SortFunc(out, floatorder.Compare[T])
	return out
}

func (t *Tracker[T]) MaxFrequency() int { return t.modeFreq }

func (t *Tracker[T]) Frequency(v T) int { return t.freq[floatorder.KeyOf(v)].n }

func (t *Tracker[T]) Distinct() int { return len(t.freq) }

func (t *Tracker[T]) Len() int { return t.count }

func (t *Tracker[T]) IsEmpty() bool { return t.count == 0 }

// Reset forgets every value. Bucket maps are kept for reuse.
func (t *Tracker[T]) Reset() {
	clear(t.freq)
	for _, b := range t.buckets {
		clear(b)
	}
	t.modeFreq = 0
	t.count = 0
	var zero T
	t.mode = zero
}
