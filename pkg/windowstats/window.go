// Package windowstats keeps a fixed-size window of samples and answers
// descriptive statistics over it without rescanning the window.
//
// A single Push feeds every tracker and, once the window is full, takes the
// evicted sample back out of the ones that need explicit removal. All
// readouts report false until the window has filled.
package windowstats

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"

	"github.com/l33tquant/ta-statistics/pkg/median"
	"github.com/l33tquant/ta-statistics/pkg/mode"
	"github.com/l33tquant/ta-statistics/pkg/moments"
	"github.com/l33tquant/ta-statistics/pkg/monoqueue"
	"github.com/l33tquant/ta-statistics/pkg/ostree"
)

// QuantileMethod selects how Quantile resolves a position between two ranks.
type QuantileMethod int

const (
	// Linear interpolates between the neighbouring ranks.
	Linear QuantileMethod = iota
	// Lower returns the element at the lower rank.
	Lower
)

func (m QuantileMethod) String() string {
	switch m {
	case Linear:
		return "linear"
	case Lower:
		return "lower"
	default:
		return fmt.Sprintf("QuantileMethod(%d)", int(m))
	}
}

type WindowStats[T constraints.Float] struct {
	moments *moments.Accumulator[T]
	min     *monoqueue.Queue[T, monoqueue.Min[T]]
	max     *monoqueue.Queue[T, monoqueue.Max[T]]
	median  *median.Tracker[T]
	mode    *mode.Tracker[T]

	// One slot more than the period: a new sample goes in before the
	// evicted one comes out.
	ranks *ostree.Tree[T]

	method         QuantileMethod
	recomputeEvery int
	pushes         int

	maxDrawdown    T
	hasMaxDrawdown bool
}

// NewWindowStats panics if period is not positive.
func NewWindowStats[T constraints.Float](period int) *WindowStats[T] {
	if period <= 0 {
		panic(fmt.Sprintf("windowstats: period must be positive, got %d", period))
	}
	return &WindowStats[T]{
		moments: moments.New[T](period),
		min:     monoqueue.NewMin[T](period),
		max:     monoqueue.NewMax[T](period),
		median:  median.New[T](period),
		mode:    mode.New[T](period),
		ranks:   ostree.New[T](period + 1),
	}
}

func (w *WindowStats[T]) Push(v T) {
	evicted, ok := w.moments.Push(v)
	w.min.Push(v)
	w.max.Push(v)
	w.median.Push(v)
	w.mode.Push(v)
	w.ranks.Insert(v)

	if ok {
		w.median.Remove(evicted)
		w.mode.Pop(evicted)
		w.ranks.Remove(evicted)
	}

	w.pushes++
	if w.recomputeEvery > 0 && w.pushes%w.recomputeEvery == 0 {
		w.moments.Recompute()
	}

	if dd, ok := w.Drawdown(); ok && (!w.hasMaxDrawdown || dd > w.maxDrawdown) {
		w.maxDrawdown = dd
		w.hasMaxDrawdown = true
	}
}

// Recompute rebuilds the running sums from the buffered samples.
func (w *WindowStats[T]) Recompute() { w.moments.Recompute() }

func (w *WindowStats[T]) SetDDOF(ddof bool) { w.moments.SetDDOF(ddof) }

func (w *WindowStats[T]) DDOF() bool { return w.moments.DDOF() }

func (w *WindowStats[T]) SetQuantileMethod(m QuantileMethod) { w.method = m }

// SetRecomputeEvery makes every n-th push rebuild the running sums. Zero
// disables it.
func (w *WindowStats[T]) SetRecomputeEvery(n int) {
	w.recomputeEvery = max(n, 0)
}

func (w *WindowStats[T]) Size() int { return w.moments.Len() }

func (w *WindowStats[T]) Period() int { return w.moments.Period() }

func (w *WindowStats[T]) IsFull() bool { return w.moments.IsReady() }

// Values appends the window, oldest first, to dst.
func (w *WindowStats[T]) Values(dst []T) []T { return w.moments.Values(dst) }

func (w *WindowStats[T]) Latest() (T, bool) { return w.moments.Latest() }

func (w *WindowStats[T]) Evicted() (T, bool) { return w.moments.Evicted() }

func (w *WindowStats[T]) Sum() (T, bool) { return w.moments.Sum() }

func (w *WindowStats[T]) Mean() (T, bool) { return w.moments.Mean() }

func (w *WindowStats[T]) Variance() (T, bool) { return w.moments.Variance() }

func (w *WindowStats[T]) StdDev() (T, bool) { return w.moments.StdDev() }

func (w *WindowStats[T]) Skew() (T, bool) { return w.moments.Skew() }

func (w *WindowStats[T]) Kurt() (T, bool) { return w.moments.Kurt() }

func (w *WindowStats[T]) ZScore() (T, bool) { return w.moments.ZScore() }

func (w *WindowStats[T]) Min() (T, bool) {
	if !w.IsFull() {
		return 0, false
	}
	return w.min.Front()
}

func (w *WindowStats[T]) Max() (T, bool) {
	if !w.IsFull() {
		return 0, false
	}
	return w.max.Front()
}

func (w *WindowStats[T]) Median() (T, bool) {
	if !w.IsFull() {
		return 0, false
	}
	return w.median.Median()
}

// Mode returns the most frequent sample, the smallest one on ties.
func (w *WindowStats[T]) Mode() (T, bool) {
	if !w.IsFull() {
		return 0, false
	}
	return w.mode.Mode()
}

// Modes returns every sample sharing the highest frequency in ascending order.
func (w *WindowStats[T]) Modes() []T {
	if !w.IsFull() {
		return nil
	}
	return w.mode.Modes()
}

// Quantile returns the q-quantile of the window for q in [0, 1].
func (w *WindowStats[T]) Quantile(q float64) (T, bool) {
	if !w.IsFull() || math.IsNaN(q) || q < 0 || q > 1 {
		return 0, false
	}
	if w.method == Lower {
		return w.ranks.Quantile(q)
	}

	pos := q * float64(w.ranks.Len()-1)
	lo := math.Floor(pos)
	a, ok := w.ranks.Kth(int(lo))
	if !ok {
		return 0, false
	}
	frac := T(pos - lo)
	if frac == 0 {
		return a, true
	}
	b, ok := w.ranks.Kth(int(lo) + 1)
	if !ok {
		return 0, false
	}
	return a + (b-a)*frac, true
}

func (w *WindowStats[T]) Percentile(p float64) (T, bool) {
	return w.Quantile(p / 100)
}

// IQR is the distance between the first and third quartiles.
func (w *WindowStats[T]) IQR() (T, bool) {
	q1, ok := w.Quantile(0.25)
	if !ok {
		return 0, false
	}
	q3, ok := w.Quantile(0.75)
	if !ok {
		return 0, false
	}
	return q3 - q1, true
}

// Rank counts the window samples strictly below v.
func (w *WindowStats[T]) Rank(v T) (int, bool) {
	if !w.IsFull() {
		return 0, false
	}
	return w.ranks.Rank(v), true
}

// Drawdown is the relative fall of the latest sample from the window
// maximum. It is zero when either value is not positive.
func (w *WindowStats[T]) Drawdown() (T, bool) {
	peak, ok := w.Max()
	if !ok {
		return 0, false
	}
	latest, _ := w.moments.Latest()
	if peak <= 0 || latest <= 0 {
		return 0, true
	}
	return max((peak-latest)/peak, 0), true
}

// MaxDrawdown is the largest Drawdown observed since the last Reset.
func (w *WindowStats[T]) MaxDrawdown() (T, bool) {
	return w.maxDrawdown, w.hasMaxDrawdown
}

// Reset empties the window. DDOF, quantile method and recompute cadence are
// kept.
func (w *WindowStats[T]) Reset() {
	w.moments.Reset()
	w.min.Reset()
	w.max.Reset()
	w.median.Reset()
	w.mode.Reset()
	w.ranks.Reset()
	w.pushes = 0
	w.maxDrawdown, w.hasMaxDrawdown = 0, false
}
