// Package moments keeps the first four central moments of a sliding window
// up to date in O(1) per sample.
//
// Raw power sums are maintained with compensated summation and converted to
// central moments on every push. The sums are taken over x-K rather than x,
// where K is a shift close to the data, so a large common offset does not
// cancel away the significant digits of the variance.
package moments

import (
	"math"

	"golang.org/x/exp/constraints"

	"github.com/l33tquant/ta-statistics/pkg/ringbuf"
)

type Accumulator[T constraints.Float] struct {
	buf *ringbuf.Buffer[T]

	shift     T
	shiftSet  bool
	nonFinite int

	// Pushes since the sums were last rebuilt.
	sinceRebuild int

	s1, s2, s3, s4 kbn[T]
	mean           T
	m2, m3, m4     T

	ddof       bool
	latest     T
	evicted    T
	hasEvicted bool
}

// drift is how far, in squared standard deviations, the mean may wander
// from the shift before Push re-centres it.
const drift = 16

// New panics if period is not positive.
func New[T constraints.Float](period int) *Accumulator[T] {
	return &Accumulator[T]{buf: ringbuf.New[T](period)}
}

func finite[T constraints.Float](v T) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}

// Push adds v and returns the sample that left the window, if any.
func (a *Accumulator[T]) Push(v T) (T, bool) {
	rebuild := false
	if !a.shiftSet && finite(v) {
		a.shift = v
		a.shiftSet = true
		rebuild = a.buf.Len() > 0
	}

	old, evicted := a.buf.Push(v)
	if evicted {
		if !finite(old) {
			a.nonFinite--
			rebuild = rebuild || a.nonFinite == 0
		}
		a.addPowers(old, -1)
	}
	if !finite(v) {
		a.nonFinite++
	}
	a.addPowers(v, 1)

	a.latest = v
	a.evicted, a.hasEvicted = old, evicted

	if rebuild {
		a.rebuild()
	}
	a.update()

	// A trending stream pulls the mean away from the shift. Re-centre at
	// most once per period.
	a.sinceRebuild++
	if a.nonFinite == 0 && a.sinceRebuild >= a.buf.Cap() {
		if d := a.mean - a.shift; d*d > drift*a.m2 {
			a.Recompute()
		}
	}
	return old, evicted
}

func (a *Accumulator[T]) addPowers(x T, sign T) {
	d := x - a.shift
	d2 := d * d
	a.s1.add(sign * d)
	a.s2.add(sign * d2)
	a.s3.add(sign * d2 * d)
	a.s4.add(sign * d2 * d2)
}

func (a *Accumulator[T]) rebuild() {
	a.s1.reset()
	a.s2.reset()
	a.s3.reset()
	a.s4.reset()
	a.sinceRebuild = 0
	for v := range a.buf.All() {
		a.addPowers(v, 1)
	}
}

func (a *Accumulator[T]) update() {
	n := T(a.buf.Len())
	if n == 0 {
		a.mean, a.m2, a.m3, a.m4 = 0, 0, 0, 0
		return
	}
	e1 := a.s1.total() / n
	e2 := a.s2.total() / n
	e3 := a.s3.total() / n
	e4 := a.s4.total() / n
	e1sq := e1 * e1

	a.mean = a.shift + e1
	a.m2 = e2 - e1sq
	a.m3 = e3 - 3*e1*e2 + 2*e1sq*e1
	a.m4 = e4 - 4*e1*e3 + 6*e1sq*e2 - 3*e1sq*e1sq
}

// Recompute re-centres the shift on the current mean and rebuilds every sum
// from the buffered samples, discarding accumulated rounding drift.
func (a *Accumulator[T]) Recompute() {
	if a.buf.Len() == 0 {
		return
	}
	if finite(a.mean) {
		a.shift = a.mean
	}
	a.rebuild()
	a.update()
}

func (a *Accumulator[T]) SetDDOF(ddof bool) { a.ddof = ddof }

func (a *Accumulator[T]) DDOF() bool { return a.ddof }

func (a *Accumulator[T]) Len() int { return a.buf.Len() }

func (a *Accumulator[T]) Period() int { return a.buf.Cap() }

// IsReady reports whether the window is full. No statistic is reported
// before that.
func (a *Accumulator[T]) IsReady() bool { return a.buf.IsFull() }

func (a *Accumulator[T]) Latest() (T, bool) {
	if a.buf.Len() == 0 {
		var zero T
		return zero, false
	}
	return a.latest, true
}

// Evicted returns the sample dropped by the most recent Push.
func (a *Accumulator[T]) Evicted() (T, bool) { return a.evicted, a.hasEvicted }

// Values appends the window, oldest first, to dst.
func (a *Accumulator[T]) Values(dst []T) []T { return a.buf.AppendTo(dst) }

func (a *Accumulator[T]) Sum() (T, bool) {
	if !a.IsReady() {
		return 0, false
	}
	return a.shift*T(a.buf.Len()) + a.s1.total(), true
}

func (a *Accumulator[T]) SumSq() (T, bool) {
	if !a.IsReady() {
		return 0, false
	}
	n := T(a.buf.Len())
	return a.s2.total() + 2*a.shift*a.s1.total() + n*a.shift*a.shift, true
}

func (a *Accumulator[T]) Mean() (T, bool) {
	if !a.IsReady() {
		return 0, false
	}
	return a.mean, true
}

func (a *Accumulator[T]) MeanSq() (T, bool) {
	sq, ok := a.SumSq()
	if !ok {
		return 0, false
	}
	return sq / T(a.buf.Len()), true
}

// Variance reports no result while a NaN or infinity is in the window.
func (a *Accumulator[T]) Variance() (T, bool) {
	if !a.IsReady() || a.nonFinite > 0 {
		return 0, false
	}
	n := T(a.buf.Len())
	denom := n
	if a.ddof {
		denom = n - 1
	}
	if denom <= 0 {
		return 0, false
	}
	return a.m2 * n / denom, true
}

func (a *Accumulator[T]) StdDev() (T, bool) {
	v, ok := a.Variance()
	if !ok || !(v >= 0) {
		return 0, false
	}
	return T(math.Sqrt(float64(v))), true
}

// ZScore is the distance of the latest sample from the mean in standard
// deviations.
func (a *Accumulator[T]) ZScore() (T, bool) {
	sd, ok := a.StdDev()
	if !ok || sd == 0 {
		return 0, false
	}
	return (a.latest - a.mean) / sd, true
}

func (a *Accumulator[T]) Skew() (T, bool) {
	if !a.IsReady() || a.nonFinite > 0 || !(a.m2 > 0) {
		return 0, false
	}
	g1 := a.m3 / (a.m2 * T(math.Sqrt(float64(a.m2))))
	if !a.ddof {
		return g1, true
	}
	n := T(a.buf.Len())
	if n <= 2 {
		return 0, false
	}
	return T(math.Sqrt(float64(n*(n-1)))) / (n - 2) * g1, true
}

// Kurt returns the excess kurtosis. It needs at least four samples under
// either DDOF setting.
func (a *Accumulator[T]) Kurt() (T, bool) {
	n := T(a.buf.Len())
	if !a.IsReady() || a.nonFinite > 0 || n < 4 || !(a.m2 > 0) {
		return 0, false
	}
	if !a.ddof {
		return a.m4/(a.m2*a.m2) - 3, true
	}
	s2 := a.m2 * n / (n - 1)
	scale := n * n * (n + 1) / ((n - 1) * (n - 2) * (n - 3))
	bias := 3 * (n - 1) * (n - 1) / ((n - 2) * (n - 3))
	return scale*a.m4/(s2*s2) - bias, true
}

// Reset empties the window and forgets the shift. The DDOF setting is kept.
func (a *Accumulator[T]) Reset() {
	a.buf.Reset()
	a.s1.reset()
	a.s2.reset()
	a.s3.reset()
	a.s4.reset()
	a.shift, a.shiftSet, a.nonFinite, a.sinceRebuild = 0, false, 0, 0
	a.mean, a.m2, a.m3, a.m4 = 0, 0, 0, 0
	a.latest, a.evicted, a.hasEvicted = 0, 0, false
}
