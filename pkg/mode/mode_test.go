package mode

import (
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTieBreaksToSmallest(t *testing.T) {
	tr := New[float64](3)
	_, ok := tr.Mode()
	assert.False(t, ok)

	for _, v := range []float64{3, 1, 2} {
		tr.Push(v)
	}
	m, ok := tr.Mode()
	require.True(t, ok)
	assert.Equal(t, 1.0, m)
	assert.Equal(t, []float64{1, 2, 3}, tr.Modes())

	require.True(t, tr.Pop(3))
	tr.Push(2)
	m, _ = tr.Mode()
	assert.Equal(t, 2.0, m)
	assert.Equal(t, 2, tr.MaxFrequency())

	require.True(t, tr.Pop(1))
	tr.Push(4)
	m, _ = tr.Mode()
	assert.Equal(t, 2.0, m)
}

func TestPopFallsBackToLowerBucket(t *testing.T) {
	tr := New[float64](4)
	for _, v := range []float64{5, 5, 7, 6} {
		tr.Push(v)
	}
	m, _ := tr.Mode()
	assert.Equal(t, 5.0, m)

	require.True(t, tr.Pop(5))
	m, _ = tr.Mode()
	assert.Equal(t, 5.0, m, "every value now has frequency one")
	assert.Equal(t, []float64{5, 6, 7}, tr.Modes())

	require.True(t, tr.Pop(5))
	m, _ = tr.Mode()
	assert.Equal(t, 6.0, m)
	assert.Equal(t, 0, tr.Frequency(5))
	assert.Equal(t, 2, tr.Distinct())
}

func TestPopUnknown(t *testing.T) {
	tr := New[float64](2)
	tr.Push(1)
	assert.False(t, tr.Pop(2))
	assert.Equal(t, 1, tr.Len())

	require.True(t, tr.Pop(1))
	assert.True(t, tr.IsEmpty())
	_, ok := tr.Mode()
	assert.False(t, ok)
	assert.Nil(t, tr.Modes())
}

func TestNaNAndSignedZero(t *testing.T) {
	tr := New[float64](5)
	tr.Push(math.NaN())
	tr.Push(math.NaN())
	tr.Push(0)
	tr.Push(math.Copysign(0, -1))
	tr.Push(1)

	assert.Equal(t, 2, tr.Frequency(math.NaN()))
	assert.Equal(t, 2, tr.Frequency(0))
	m, _ := tr.Mode()
	assert.Equal(t, 0.0, m, "zero beats NaN on the tie")

	require.True(t, tr.Pop(0))
	m, _ = tr.Mode()
	assert.True(t, math.IsNaN(m))
}

// Random sliding windows compared with a counting scan.
func TestAgainstCounting(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const period = 12
	tr := New[float64](period)
	var window []float64

	for i := 0; i < 4000; i++ {
		v := float64(rng.Intn(8))
		tr.Push(v)
		window = append(window, v)
		if len(window) > period {
			require.True(t, tr.Pop(window[0]))
			window = window[1:]
		}

		counts := map[float64]int{}
		best := 0
		for _, x := range window {
			counts[x]++
			best = max(best, counts[x])
		}
		var want []float64
		for x, n := range counts {
			if n == best {
				want = append(want, x)
			}
		}
		slices.Sort(want)

		m, ok := tr.Mode()
		require.True(t, ok)
		require.Equal(t, want[0], m, "step %d", i)
		require.Equal(t, want, tr.Modes())
		require.Equal(t, best, tr.MaxFrequency())
		require.Equal(t, len(window), tr.Len())
	}
}

func TestResetKeepsBuckets(t *testing.T) {
	tr := New[float64](3)
	tr.Push(1)
	tr.Push(1)
	tr.Push(1)
	buckets := len(tr.buckets)
	tr.Reset()

	assert.Equal(t, buckets, len(tr.buckets))
	assert.True(t, tr.IsEmpty())
	_, ok := tr.Mode()
	assert.False(t, ok)

	tr.Push(2)
	m, _ := tr.Mode()
	assert.Equal(t, 2.0, m)
}
