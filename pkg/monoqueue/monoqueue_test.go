package monoqueue

import (
	"math"
	"math/rand"
	"testing"

	gdeque "github.com/gammazero/deque"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l33tquant/ta-statistics/pkg/floatorder"
)

var temperatures = []float64{25.4, 26.2, 26.0, 26.1, 25.8, 25.9, 26.3, 26.2, 26.5}

func TestMinSequence(t *testing.T) {
	q := NewMin[float64](3)
	var got []float64
	for i, v := range temperatures {
		q.Push(v)
		if i >= 2 {
			m, ok := q.Front()
			require.True(t, ok)
			got = append(got, m)
		}
	}
	assert.Equal(t, []float64{25.4, 26.0, 25.8, 25.8, 25.8, 25.9, 26.2}, got)
}

func TestMaxSequence(t *testing.T) {
	q := NewMax[float64](3)
	var got []float64
	for i, v := range temperatures {
		q.Push(v)
		if i >= 2 {
			m, _ := q.Front()
			got = append(got, m)
		}
	}
	assert.Equal(t, []float64{26.2, 26.2, 26.1, 26.1, 26.3, 26.3, 26.5}, got)
}

func TestEmpty(t *testing.T) {
	q := NewMin[float64](2)
	_, ok := q.Front()
	assert.False(t, ok)

	q.Push(1)
	q.Reset()
	_, ok = q.Front()
	assert.False(t, ok)
}

func TestEqualValuesCollapse(t *testing.T) {
	q := NewMax[float64](5)
	for range 5 {
		q.Push(7)
	}
	assert.Equal(t, 1, q.Len())
	v, _ := q.Front()
	assert.Equal(t, 7.0, v)
}

func TestNaNIsLargest(t *testing.T) {
	mx := NewMax[float64](3)
	mn := NewMin[float64](3)
	for _, v := range []float64{1, math.NaN(), 2} {
		mx.Push(v)
		mn.Push(v)
	}
	v, _ := mx.Front()
	assert.True(t, math.IsNaN(v))
	v, _ = mn.Front()
	assert.Equal(t, 1.0, v)

	for _, v := range []float64{3, 4} {
		mx.Push(v)
	}
	v, _ = mx.Front()
	assert.Equal(t, 4.0, v, "NaN expired from the window")
}

// Compare against a brute-force scan over the last window samples.
func TestAgainstNaiveWindow(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, window := range []int{1, 2, 5, 17} {
		mn := NewMin[float64](window)
		mx := NewMax[float64](window)
		var naive gdeque.Deque[float64]

		for i := 0; i < 2000; i++ {
			v := float64(rng.Intn(50))
			mn.Push(v)
			mx.Push(v)
			naive.PushBack(v)
			if naive.Len() > window {
				naive.PopFront()
			}

			wantMin, wantMax := naive.At(0), naive.At(0)
			for j := 1; j < naive.Len(); j++ {
				x := naive.At(j)
				if floatorder.Less(x, wantMin) {
					wantMin = x
				}
				if floatorder.Less(wantMax, x) {
					wantMax = x
				}
			}

			gotMin, ok := mn.Front()
			require.True(t, ok)
			gotMax, _ := mx.Front()
			require.Equal(t, wantMin, gotMin, "window %d step %d", window, i)
			require.Equal(t, wantMax, gotMax, "window %d step %d", window, i)
			require.LessOrEqual(t, mn.Len(), window)
		}
	}
}
