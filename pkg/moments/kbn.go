package moments

import "golang.org/x/exp/constraints"

// kbn is a Kahan-Babuska-Neumaier compensated sum. The running error term is
// kept apart from the sum and folded back in on read.
type kbn[T constraints.Float] struct {
	sum T
	c   T
}

// add stops correcting once the sum is no longer finite, so an infinity
// stays an infinity instead of becoming NaN.
func (k *kbn[T]) add(x T) {
	t := k.sum + x
	switch {
	case !finite(t):
	case abs(k.sum) >= abs(x):
		k.c += (k.sum - t) + x
	default:
		k.c += (x - t) + k.sum
	}
	k.sum = t
}

func (k *kbn[T]) total() T {
	if !finite(k.sum) {
		return k.sum
	}
	return k.sum + k.c
}

func (k *kbn[T]) reset() { *k = kbn[T]{} }

func abs[T constraints.Float](x T) T {
	if x < 0 {
		return -x
	}
	return x
}
