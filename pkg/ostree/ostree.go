// Package ostree is an order-statistics red-black tree stored in a fixed
// arena. Every node carries the number of copies of its value and the total
// number of copies in its subtree, which makes k-th smallest, rank and
// quantile lookups O(log n). Node slots are recycled through a free list and
// the arena never grows; an insert that needs a new slot fails once the arena
// is exhausted.
package ostree

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"

	"github.com/l33tquant/ta-statistics/pkg/floatorder"
)

const nilIdx = -1

type node[T constraints.Float] struct {
	value  T
	count  int
	size   int
	parent int
	left   int
	right  int
	red    bool
}

type Tree[T constraints.Float] struct {
	nodes    []node[T]
	free     []int
	root     int
	total    int
	distinct int
}

func New[T constraints.Float](capacity int) *Tree[T] {
	if capacity <= 0 {
		panic(fmt.Sprintf("ostree: capacity must be positive, got %d", capacity))
	}
	t := &Tree[T]{
		nodes: make([]node[T], capacity),
		free:  make([]int, 0, capacity),
	}
	t.Reset()
	return t
}

func (t *Tree[T]) Len() int { return t.total }

func (t *Tree[T]) Distinct() int { return t.distinct }

func (t *Tree[T]) Cap() int { return len(t.nodes) }

// Free is the number of unused node slots.
func (t *Tree[T]) Free() int { return len(t.free) }

func (t *Tree[T]) IsEmpty() bool { return t.total == 0 }

func (t *Tree[T]) size(i int) int {
	if i == nilIdx {
		return 0
	}
	return t.nodes[i].size
}

func (t *Tree[T]) isRed(i int) bool {
	return i != nilIdx && t.nodes[i].red
}

func (t *Tree[T]) resize(i int) {
	n := &t.nodes[i]
	n.size = t.size(n.left) + t.size(n.right) + n.count
}

func (t *Tree[T]) addToPath(i, delta int) {
	for ; i != nilIdx; i = t.nodes[i].parent {
		t.nodes[i].size += delta
	}
}

func (t *Tree[T]) find(v T) int {
	x := t.root
	for x != nilIdx {
		switch c := floatorder.Compare(v, t.nodes[x].value); {
		case c < 0:
			x = t.nodes[x].left
		case c > 0:
			x = t.nodes[x].right
		default:
			return x
		}
	}
	return nilIdx
}

// Insert adds one copy of v. It reports false when v is a new value and no
// node slot is left.
func (t *Tree[T]) Insert(v T) bool {
	parent, x := nilIdx, t.root
	goLeft := false
	for x != nilIdx {
		parent = x
		c := floatorder.Compare(v, t.nodes[x].value)
		if c == 0 {
			t.nodes[x].count++
			t.addToPath(x, 1)
			t.total++
			t.check()
			return true
		}
		goLeft = c < 0
		if goLeft {
			x = t.nodes[x].left
		} else {
			x = t.nodes[x].right
		}
	}

	if len(t.free) == 0 {
		return false
	}
	z := t.free[len(t.free)-1]
	t.free = t.free[:len(t.free)-1]
	t.nodes[z] = node[T]{
		value:  v,
		count:  1,
		size:   1,
		parent: parent,
		left:   nilIdx,
		right:  nilIdx,
		red:    true,
	}

	switch {
	case parent == nilIdx:
		t.root = z
	case goLeft:
		t.nodes[parent].left = z
	default:
		t.nodes[parent].right = z
	}
	t.addToPath(parent, 1)
	t.total++
	t.distinct++

	t.insertFixup(z)
	t.check()
	return true
}

// Remove deletes one copy of v and reports whether it was present.
func (t *Tree[T]) Remove(v T) bool {
	z := t.find(v)
	if z == nilIdx {
		return false
	}
	t.total--
	if t.nodes[z].count > 1 {
		t.nodes[z].count--
		t.addToPath(z, -1)
		t.check()
		return true
	}

	y := z
	yWasRed := t.nodes[y].red
	var x, xParent int
	switch {
	case t.nodes[z].left == nilIdx:
		x = t.nodes[z].right
		xParent = t.nodes[z].parent
		t.transplant(z, x)
	case t.nodes[z].right == nilIdx:
		x = t.nodes[z].left
		xParent = t.nodes[z].parent
		t.transplant(z, x)
	default:
		y = t.minimum(t.nodes[z].right)
		yWasRed = t.nodes[y].red
		x = t.nodes[y].right
		if t.nodes[y].parent == z {
			xParent = y
		} else {
			xParent = t.nodes[y].parent
			t.transplant(y, x)
			t.nodes[y].right = t.nodes[z].right
			t.nodes[t.nodes[y].right].parent = y
		}
		t.transplant(z, y)
		t.nodes[y].left = t.nodes[z].left
		t.nodes[t.nodes[y].left].parent = y
		t.nodes[y].red = t.nodes[z].red
	}

	for p := xParent; p != nilIdx; p = t.nodes[p].parent {
		t.resize(p)
	}
	if !yWasRed {
		t.deleteFixup(x, xParent)
	}

	t.nodes[z] = node[T]{parent: nilIdx, left: nilIdx, right: nilIdx}
	t.free = append(t.free, z)
	t.distinct--
	t.check()
	return true
}

func (t *Tree[T]) transplant(u, v int) {
	p := t.nodes[u].parent
	switch {
	case p == nilIdx:
		t.root = v
	case t.nodes[p].left == u:
		t.nodes[p].left = v
	default:
		t.nodes[p].right = v
	}
	if v != nilIdx {
		t.nodes[v].parent = p
	}
}

func (t *Tree[T]) minimum(x int) int {
	for t.nodes[x].left != nilIdx {
		x = t.nodes[x].left
	}
	return x
}

func (t *Tree[T]) maximum(x int) int {
	for t.nodes[x].right != nilIdx {
		x = t.nodes[x].right
	}
	return x
}

func (t *Tree[T]) rotateLeft(x int) {
	y := t.nodes[x].right
	t.nodes[x].right = t.nodes[y].left
	if l := t.nodes[y].left; l != nilIdx {
		t.nodes[l].parent = x
	}
	t.transplant(x, y)
	t.nodes[y].left = x
	t.nodes[x].parent = y
	t.resize(x)
	t.resize(y)
}

func (t *Tree[T]) rotateRight(x int) {
	y := t.nodes[x].left
	t.nodes[x].left = t.nodes[y].right
	if r := t.nodes[y].right; r != nilIdx {
		t.nodes[r].parent = x
	}
	t.transplant(x, y)
	t.nodes[y].right = x
	t.nodes[x].parent = y
	t.resize(x)
	t.resize(y)
}

func (t *Tree[T]) insertFixup(z int) {
	for t.isRed(t.nodes[z].parent) {
		p := t.nodes[z].parent
		g := t.nodes[p].parent
		if p == t.nodes[g].left {
			u := t.nodes[g].right
			if t.isRed(u) {
				t.nodes[p].red = false
				t.nodes[u].red = false
				t.nodes[g].red = true
				z = g
				continue
			}
			if z == t.nodes[p].right {
				z = p
				t.rotateLeft(z)
				p = t.nodes[z].parent
			}
			t.nodes[p].red = false
			t.nodes[g].red = true
			t.rotateRight(g)
		} else {
			u := t.nodes[g].left
			if t.isRed(u) {
				t.nodes[p].red = false
				t.nodes[u].red = false
				t.nodes[g].red = true
				z = g
				continue
			}
			if z == t.nodes[p].left {
				z = p
				t.rotateRight(z)
				p = t.nodes[z].parent
			}
			t.nodes[p].red = false
			t.nodes[g].red = true
			t.rotateLeft(g)
		}
	}
	t.nodes[t.root].red = false
}

// deleteFixup restores the colouring after a black node was spliced out. x
// may be nil, so its parent is tracked separately.
func (t *Tree[T]) deleteFixup(x, parent int) {
	for x != t.root && !t.isRed(x) {
		if x == t.nodes[parent].left {
			w := t.nodes[parent].right
			if t.isRed(w) {
				t.nodes[w].red = false
				t.nodes[parent].red = true
				t.rotateLeft(parent)
				w = t.nodes[parent].right
			}
			if !t.isRed(t.nodes[w].left) && !t.isRed(t.nodes[w].right) {
				t.nodes[w].red = true
				x = parent
				parent = t.nodes[x].parent
				continue
			}
			if !t.isRed(t.nodes[w].right) {
				t.nodes[t.nodes[w].left].red = false
				t.nodes[w].red = true
				t.rotateRight(w)
				w = t.nodes[parent].right
			}
			t.nodes[w].red = t.nodes[parent].red
			t.nodes[parent].red = false
			t.nodes[t.nodes[w].right].red = false
			t.rotateLeft(parent)
		} else {
			w := t.nodes[parent].left
			if t.isRed(w) {
				t.nodes[w].red = false
				t.nodes[parent].red = true
				t.rotateRight(parent)
				w = t.nodes[parent].left
			}
			if !t.isRed(t.nodes[w].left) && !t.isRed(t.nodes[w].right) {
				t.nodes[w].red = true
				x = parent
				parent = t.nodes[x].parent
				continue
			}
			if !t.isRed(t.nodes[w].left) {
				t.nodes[t.nodes[w].right].red = false
				t.nodes[w].red = true
				t.rotateLeft(w)
				w = t.nodes[parent].left
			}
			t.nodes[w].red = t.nodes[parent].red
			t.nodes[parent].red = false
			t.nodes[t.nodes[w].left].red = false
			t.rotateRight(parent)
		}
		x = t.root
	}
	if x != nilIdx {
		t.nodes[x].red = false
	}
}

// Kth returns the k-th smallest element (0-based), counting duplicates.
func (t *Tree[T]) Kth(k int) (T, bool) {
	if k < 0 || k >= t.total {
		var zero T
		return zero, false
	}
	x := t.root
	for {
		n := &t.nodes[x]
		left := t.size(n.left)
		switch {
		case k < left:
			x = n.left
		case k < left+n.count:
			return n.value, true
		default:
			k -= left + n.count
			x = n.right
		}
	}
}

// Quantile returns the element at rank floor(q*(n-1)). q must lie in [0, 1].
func (t *Tree[T]) Quantile(q float64) (T, bool) {
	if math.IsNaN(q) || q < 0 || q > 1 || t.total == 0 {
		var zero T
		return zero, false
	}
	return t.Kth(int(math.Floor(q * float64(t.total-1))))
}

// Percentile is Quantile on a 0-100 scale.
func (t *Tree[T]) Percentile(p float64) (T, bool) {
	return t.Quantile(p / 100)
}

func (t *Tree[T]) Min() (T, bool) {
	if t.root == nilIdx {
		var zero T
		return zero, false
	}
	return t.nodes[t.minimum(t.root)].value, true
}

func (t *Tree[T]) Max() (T, bool) {
	if t.root == nilIdx {
		var zero T
		return zero, false
	}
	return t.nodes[t.maximum(t.root)].value, true
}

// Rank counts the stored elements strictly smaller than v.
func (t *Tree[T]) Rank(v T) int {
	rank, x := 0, t.root
	for x != nilIdx {
		n := &t.nodes[x]
		switch c := floatorder.Compare(v, n.value); {
		case c < 0:
			x = n.left
		case c > 0:
			rank += t.size(n.left) + n.count
			x = n.right
		default:
			return rank + t.size(n.left)
		}
	}
	return rank
}

// Ascend calls fn for each distinct value in ascending order with its number
// of copies, stopping early when fn returns false.
func (t *Tree[T]) Ascend(fn func(v T, count int) bool) {
	t.ascend(t.root, fn)
}

func (t *Tree[T]) ascend(x int, fn func(T, int) bool) bool {
	if x == nilIdx {
		return true
	}
	n := t.nodes[x]
	return t.ascend(n.left, fn) && fn(n.value, n.count) && t.ascend(n.right, fn)
}

// Reset empties the tree and returns every slot to the free list.
func (t *Tree[T]) Reset() {
	t.free = t.free[:0]
	for i := len(t.nodes) - 1; i >= 0; i-- {
		t.nodes[i] = node[T]{parent: nilIdx, left: nilIdx, right: nilIdx}
		t.free = append(t.free, i)
	}
	t.root = nilIdx
	t.total = 0
	t.distinct = 0
}

func (t *Tree[T]) check() {
	if !debugChecks {
		return
	}
	if err := t.verify(); err != nil {
		panic(err)
	}
}
