package bptree

import (
	"errors"
	"fmt"
)

// ErrCorrupt wraps every failure reported by Check.
var ErrCorrupt = errors.New("bptree: invariant violated")

type bound[K any] struct {
	key K
	set bool
}

// Check verifies the structural invariants: uniform leaf depth, fanout
// bounds, sorted keys, separator bounds and a leaf chain that yields every
// key exactly once in strictly increasing order.
func (t *Tree[K, V]) Check() error {
	root := t.node(t.root)
	if root.leaf != (t.height == 1) {
		return fmt.Errorf("%w: root leaf=%v at height %d", ErrCorrupt, root.leaf, t.height)
	}
	if !root.leaf && len(root.children) < 2 {
		return fmt.Errorf("%w: internal root has %d children", ErrCorrupt, len(root.children))
	}
	if (t.length == 0) != (root.leaf && len(root.keys) == 0) {
		return fmt.Errorf("%w: length %d disagrees with root shape", ErrCorrupt, t.length)
	}

	var leaves []nodeID
	count, err := t.checkNode(t.root, 1, bound[K]{}, bound[K]{}, &leaves)
	if err != nil {
		return err
	}
	if count != t.length {
		return fmt.Errorf("%w: %d keys reachable, length is %d", ErrCorrupt, count, t.length)
	}
	if live := t.liveNodes(); live != t.reachable() {
		return fmt.Errorf("%w: %d live nodes, %d reachable", ErrCorrupt, live, t.reachable())
	}
	return t.checkChain(leaves)
}

func (t *Tree[K, V]) checkNode(id nodeID, depth int, lo, hi bound[K], leaves *[]nodeID) (int, error) {
	if id < 0 || int(id) >= len(t.nodes) || t.nodes[id] == nil {
		return 0, fmt.Errorf("%w: dangling handle %d", ErrCorrupt, id)
	}
	n := t.nodes[id]
	isRoot := id == t.root

	if len(n.keys) > t.maxKeys() {
		return 0, fmt.Errorf("%w: node %d has %d keys, max %d", ErrCorrupt, id, len(n.keys), t.maxKeys())
	}
	for i := 1; i < len(n.keys); i++ {
		if t.cmp(n.keys[i-1], n.keys[i]) >= 0 {
			return 0, fmt.Errorf("%w: node %d keys not strictly increasing at %d", ErrCorrupt, id, i)
		}
	}
	for i, k := range n.keys {
		if lo.set && t.cmp(k, lo.key) < 0 {
			return 0, fmt.Errorf("%w: node %d key %d below separator", ErrCorrupt, id, i)
		}
		if hi.set && t.cmp(k, hi.key) >= 0 {
			return 0, fmt.Errorf("%w: node %d key %d not below separator", ErrCorrupt, id, i)
		}
	}

	if n.leaf {
		if depth != t.height {
			return 0, fmt.Errorf("%w: leaf %d at depth %d, height %d", ErrCorrupt, id, depth, t.height)
		}
		if len(n.values) != len(n.keys) {
			return 0, fmt.Errorf("%w: leaf %d has %d keys and %d values", ErrCorrupt, id, len(n.keys), len(n.values))
		}
		if !isRoot && len(n.keys) < t.minLeafKeys() {
			return 0, fmt.Errorf("%w: leaf %d has %d keys, min %d", ErrCorrupt, id, len(n.keys), t.minLeafKeys())
		}
		*leaves = append(*leaves, id)
		return len(n.keys), nil
	}

	if len(n.children) != len(n.keys)+1 {
		return 0, fmt.Errorf("%w: node %d has %d keys and %d children", ErrCorrupt, id, len(n.keys), len(n.children))
	}
	if len(n.children) > t.order {
		return 0, fmt.Errorf("%w: node %d has %d children, max %d", ErrCorrupt, id, len(n.children), t.order)
	}
	if !isRoot && len(n.children) < t.minChildren() {
		return 0, fmt.Errorf("%w: node %d has %d children, min %d", ErrCorrupt, id, len(n.children), t.minChildren())
	}

	total := 0
	for i, c := range n.children {
		clo, chi := lo, hi
		if i > 0 {
			clo = bound[K]{key: n.keys[i-1], set: true}
		}
		if i < len(n.keys) {
			chi = bound[K]{key: n.keys[i], set: true}
		}
		cnt, err := t.checkNode(c, depth+1, clo, chi, leaves)
		if err != nil {
			return 0, err
		}
		total += cnt
	}
	return total, nil
}

// checkChain compares the leaf chain with the left-to-right leaf order of
// the tree walk.
func (t *Tree[K, V]) checkChain(leaves []nodeID) error {
	id := t.leftmostLeaf()
	var (
		prev    K
		hasPrev bool
	)
	for i, want := range leaves {
		if id != want {
			return fmt.Errorf("%w: leaf chain position %d is %d, tree order has %d", ErrCorrupt, i, id, want)
		}
		n := t.node(id)
		for _, k := range n.keys {
			if hasPrev && t.cmp(prev, k) >= 0 {
				return fmt.Errorf("%w: leaf chain not strictly increasing in leaf %d", ErrCorrupt, id)
			}
			prev, hasPrev = k, true
		}
		id = n.next
	}
	if id != nilNode {
		return fmt.Errorf("%w: leaf chain continues past the last leaf to %d", ErrCorrupt, id)
	}
	return nil
}

func (t *Tree[K, V]) reachable() int {
	count := 0
	stack := []nodeID{t.root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		stack = append(stack, t.node(id).children...)
	}
	return count
}
