package bptree

import (
	"iter"
	"slices"
)

// Range returns the entries with min <= key <= max in ascending key order.
// The sequence descends to the first qualifying leaf each time it is
// iterated and then follows the leaf chain, so it reflects the tree as of
// the start of that iteration. An inverted range yields nothing. Breaking
// out of the loop early is safe; mutating the tree mid-iteration is not.
func (t *Tree[K, V]) Range(min, max K) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if t.cmp(min, max) > 0 {
			return
		}
		id := t.findLeaf(min)
		i, _ := slices.BinarySearchFunc(t.node(id).keys, min, t.cmp)
		for id != nilNode {
			n := t.node(id)
			for ; i < len(n.keys); i++ {
				if t.cmp(n.keys[i], max) > 0 {
					return
				}
				if !yield(n.keys[i], n.values[i]) {
					return
				}
			}
			id, i = n.next, 0
		}
	}
}

// All returns every entry in ascending key order by walking the leaf chain.
func (t *Tree[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for id := t.leftmostLeaf(); id != nilNode; {
			n := t.node(id)
			for i := range n.keys {
				if !yield(n.keys[i], n.values[i]) {
					return
				}
			}
			id = n.next
		}
	}
}

// Min returns the smallest key and its value.
func (t *Tree[K, V]) Min() (K, V, bool) {
	for k, v := range t.All() {
		return k, v, true
	}
	var (
		zk K
		zv V
	)
	return zk, zv, false
}

// Collect gathers the entries of Range(min, max) into a slice.
func (t *Tree[K, V]) Collect(min, max K) []Entry[K, V] {
	var out []Entry[K, V]
	for k, v := range t.Range(min, max) {
		out = append(out, Entry[K, V]{Key: k, Value: v})
	}
	return out
}

// Entry is a key/value pair produced by Collect.
type Entry[K any, V any] struct {
	Key   K
	Value V
}
