package bptree

import (
	"fmt"
	"slices"
)

// Insert stores value under key. An existing key has its value replaced in
// place without any structural change.
func (t *Tree[K, V]) Insert(key K, value V) error {
	leafID := t.descend(key)
	leaf := t.node(leafID)

	i, found := slices.BinarySearchFunc(leaf.keys, key, t.cmp)
	if found {
		leaf.values[i] = value
		return nil
	}

	if need := t.splitsNeeded(leaf); t.liveNodes()+need > t.maxNodes {
		return fmt.Errorf("%w: %d live, %d more needed", ErrCapacity, t.liveNodes(), need)
	}

	leaf.keys = slices.Insert(leaf.keys, i, key)
	leaf.values = slices.Insert(leaf.values, i, value)
	t.length++

	if len(leaf.keys) <= t.maxKeys() {
		return nil
	}

	sep, right := t.splitLeaf(leafID)
	left := leafID
	for level := len(t.path) - 1; level >= 0; level-- {
		f := t.path[level]
		parent := t.node(f.id)
		if parent.children[f.idx] != left {
			panic(fmt.Sprintf("bptree: parent %d does not link child %d at slot %d", f.id, left, f.idx))
		}
		parent.keys = slices.Insert(parent.keys, f.idx, sep)
		parent.children = slices.Insert(parent.children, f.idx+1, right)
		if len(parent.children) <= t.order {
			return nil
		}
		sep, right = t.splitInternal(f.id)
		left = f.id
	}

	root := t.newInternal()
	rn := t.node(root)
	rn.keys = append(rn.keys, sep)
	rn.children = append(rn.children, t.root, right)
	t.root = root
	t.height++
	return nil
}

// splitsNeeded counts the nodes an insert into leaf would allocate, using
// the path left by the last descent.
func (t *Tree[K, V]) splitsNeeded(leaf *node[K, V]) int {
	if len(leaf.keys) < t.maxKeys() {
		return 0
	}
	need := 1
	for level := len(t.path) - 1; level >= 0; level-- {
		if len(t.node(t.path[level].id).children) < t.order {
			return need
		}
		need++
	}
	return need + 1 // new root
}

// splitLeaf moves the upper half of an overfull leaf into a new leaf that
// is linked right after it in the chain. The new leaf's first key is
// returned as the separator.
func (t *Tree[K, V]) splitLeaf(id nodeID) (K, nodeID) {
	rightID := t.newLeaf()
	left, right := t.node(id), t.node(rightID)

	mid := len(left.keys) / 2
	right.keys = append(right.keys, left.keys[mid:]...)
	right.values = append(right.values, left.values[mid:]...)

	clear(left.keys[mid:])
	clear(left.values[mid:])
	left.keys = left.keys[:mid]
	left.values = left.values[:mid]

	right.next = left.next
	left.next = rightID
	return right.keys[0], rightID
}

// splitInternal moves the upper half of an overfull internal node into a
// new node and returns the middle key, which moves up to the parent.
func (t *Tree[K, V]) splitInternal(id nodeID) (K, nodeID) {
	rightID := t.newInternal()
	left, right := t.node(id), t.node(rightID)

	mid := len(left.keys) / 2
	sep := left.keys[mid]
	right.keys = append(right.keys, left.keys[mid+1:]...)
	right.children = append(right.children, left.children[mid+1:]...)

	clear(left.keys[mid:])
	left.keys = left.keys[:mid]
	left.children = left.children[:mid+1]
	return sep, rightID
}
