package ostree

import (
	"errors"
	"fmt"

	"github.com/l33tquant/ta-statistics/pkg/floatorder"
)

// verify walks the whole tree and checks the red-black rules, the parent
// links, the search order and every subtree count.
func (t *Tree[T]) verify() error {
	if t.root != nilIdx {
		if t.nodes[t.root].red {
			return errors.New("ostree: red root")
		}
		if t.nodes[t.root].parent != nilIdx {
			return errors.New("ostree: root has a parent")
		}
	}
	_, nodes, err := t.verifyNode(t.root)
	if err != nil {
		return err
	}
	if got := t.size(t.root); got != t.total {
		return fmt.Errorf("ostree: root size %d, total %d", got, t.total)
	}
	if nodes != t.distinct {
		return fmt.Errorf("ostree: reachable nodes %d, distinct %d", nodes, t.distinct)
	}
	if t.distinct+len(t.free) != len(t.nodes) {
		return fmt.Errorf("ostree: %d nodes in use and %d free, arena holds %d", t.distinct, len(t.free), len(t.nodes))
	}
	return nil
}

// verifyNode returns the black height and node count of the subtree at x.
func (t *Tree[T]) verifyNode(x int) (int, int, error) {
	if x == nilIdx {
		return 1, 0, nil
	}
	n := t.nodes[x]
	if n.count <= 0 {
		return 0, 0, fmt.Errorf("ostree: node %d has count %d", x, n.count)
	}
	for _, c := range []int{n.left, n.right} {
		if c == nilIdx {
			continue
		}
		if t.nodes[c].parent != x {
			return 0, 0, fmt.Errorf("ostree: node %d does not point back to parent %d", c, x)
		}
		if n.red && t.nodes[c].red {
			return 0, 0, fmt.Errorf("ostree: red node %d has red child %d", x, c)
		}
	}
	if n.left != nilIdx && floatorder.Compare(t.nodes[n.left].value, n.value) >= 0 {
		return 0, 0, fmt.Errorf("ostree: left child of %d out of order", x)
	}
	if n.right != nilIdx && floatorder.Compare(t.nodes[n.right].value, n.value) <= 0 {
		return 0, 0, fmt.Errorf("ostree: right child of %d out of order", x)
	}
	if want := t.size(n.left) + t.size(n.right) + n.count; n.size != want {
		return 0, 0, fmt.Errorf("ostree: node %d size %d, want %d", x, n.size, want)
	}

	lh, ln, err := t.verifyNode(n.left)
	if err != nil {
		return 0, 0, err
	}
	rh, rn, err := t.verifyNode(n.right)
	if err != nil {
		return 0, 0, err
	}
	if lh != rh {
		return 0, 0, fmt.Errorf("ostree: black height differs under node %d (%d vs %d)", x, lh, rh)
	}
	if !n.red {
		lh++
	}
	return lh, ln + rn + 1, nil
}
