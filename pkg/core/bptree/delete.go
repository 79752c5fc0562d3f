package bptree

import (
	"fmt"
	"slices"
)

// Delete removes key and reports whether it was present. Underfull nodes
// borrow from a sibling when one can spare an entry and merge with it
// otherwise.
func (t *Tree[K, V]) Delete(key K) bool {
	leafID := t.descend(key)
	leaf := t.node(leafID)

	i, found := slices.BinarySearchFunc(leaf.keys, key, t.cmp)
	if !found {
		return false
	}
	leaf.keys = slices.Delete(leaf.keys, i, i+1)
	leaf.values = slices.Delete(leaf.values, i, i+1)
	t.length--

	child := leafID
	for level := len(t.path) - 1; level >= 0; level-- {
		if !t.underflows(t.node(child)) {
			break
		}
		f := t.path[level]
		t.rebalance(f.id, f.idx)
		child = f.id
	}

	if root := t.node(t.root); !root.leaf && len(root.children) == 1 {
		old := t.root
		t.root = root.children[0]
		t.release(old)
		t.height--
	}
	return true
}

// rebalance fixes the underfull child at slot idx of parent.
func (t *Tree[K, V]) rebalance(parentID nodeID, idx int) {
	parent := t.node(parentID)
	if idx < 0 || idx >= len(parent.children) {
		panic(fmt.Sprintf("bptree: child slot %d out of range in node %d", idx, parentID))
	}

	if idx > 0 {
		if left := t.node(parent.children[idx-1]); t.canLend(left) {
			t.borrowFromLeft(parent, idx)
			return
		}
	}
	if idx < len(parent.children)-1 {
		if right := t.node(parent.children[idx+1]); t.canLend(right) {
			t.borrowFromRight(parent, idx)
			return
		}
	}
	if idx > 0 {
		t.merge(parent, idx-1)
	} else {
		t.merge(parent, idx)
	}
}

func (t *Tree[K, V]) borrowFromLeft(parent *node[K, V], idx int) {
	child := t.node(parent.children[idx])
	left := t.node(parent.children[idx-1])
	last := len(left.keys) - 1

	if child.leaf {
		child.keys = slices.Insert(child.keys, 0, left.keys[last])
		child.values = slices.Insert(child.values, 0, left.values[last])
		left.keys = slices.Delete(left.keys, last, last+1)
		left.values = slices.Delete(left.values, last, last+1)
		parent.keys[idx-1] = child.keys[0]
		return
	}

	lastChild := len(left.children) - 1
	child.keys = slices.Insert(child.keys, 0, parent.keys[idx-1])
	child.children = slices.Insert(child.children, 0, left.children[lastChild])
	parent.keys[idx-1] = left.keys[last]
	left.keys = slices.Delete(left.keys, last, last+1)
	left.children = left.children[:lastChild]
}

func (t *Tree[K, V]) borrowFromRight(parent *node[K, V], idx int) {
	child := t.node(parent.children[idx])
	right := t.node(parent.children[idx+1])

	if child.leaf {
		child.keys = append(child.keys, right.keys[0])
		child.values = append(child.values, right.values[0])
		right.keys = slices.Delete(right.keys, 0, 1)
		right.values = slices.Delete(right.values, 0, 1)
		parent.keys[idx] = right.keys[0]
		return
	}

	child.keys = append(child.keys, parent.keys[idx])
	child.children = append(child.children, right.children[0])
	parent.keys[idx] = right.keys[0]
	right.keys = slices.Delete(right.keys, 0, 1)
	right.children = slices.Delete(right.children, 0, 1)
}

// merge folds the child at slot idx+1 into the child at slot idx and drops
// their separator from parent.
func (t *Tree[K, V]) merge(parent *node[K, V], idx int) {
	leftID, rightID := parent.children[idx], parent.children[idx+1]
	left, right := t.node(leftID), t.node(rightID)

	if left.leaf != right.leaf {
		panic(fmt.Sprintf("bptree: merging leaf with internal node (%d, %d)", leftID, rightID))
	}
	if left.leaf {
		if left.next != rightID {
			panic(fmt.Sprintf("bptree: leaf %d is not chained to sibling %d", leftID, rightID))
		}
		left.keys = append(left.keys, right.keys...)
		left.values = append(left.values, right.values...)
		left.next = right.next
	} else {
		left.keys = append(left.keys, parent.keys[idx])
		left.keys = append(left.keys, right.keys...)
		left.children = append(left.children, right.children...)
	}

	parent.keys = slices.Delete(parent.keys, idx, idx+1)
	parent.children = slices.Delete(parent.children, idx+1, idx+2)
	t.release(rightID)
}
