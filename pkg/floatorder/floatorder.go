// Package floatorder defines the total order used by every ordering structure
// in this module. Plain IEEE comparison is not a total order once NaN shows up,
// which is enough to corrupt a heap or a search tree. Here all NaNs compare
// equal to each other and greater than +Inf, and -0 equals +0.
package floatorder

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Key is a canonical map key for a float value.
type Key uint64

var nanKey = Key(math.Float64bits(math.NaN()))

// Compare returns -1, 0 or +1.
func Compare[T constraints.Float](a, b T) int {
	aNaN, bNaN := a != a, b != b
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func Less[T constraints.Float](a, b T) bool {
	return Compare(a, b) < 0
}

func Equal[T constraints.Float](a, b T) bool {
	return Compare(a, b) == 0
}

// KeyOf maps values that Compare as equal to the same key.
func KeyOf[T constraints.Float](v T) Key {
	if v != v {
		return nanKey
	}
	if v == 0 {
		return 0
	}
	return Key(math.Float64bits(float64(v)))
}

func IsNaN[T constraints.Float](v T) bool {
	return v != v
}
