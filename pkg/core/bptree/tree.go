// Package bptree implements an in-memory B+ tree keyed by any totally
// ordered type.
//
// Keys live in sorted order inside fixed-fanout nodes. Internal nodes hold
// separator keys and child handles; leaves hold the payloads and are chained
// left to right, so a range scan costs one descent plus a walk along the
// chain. Nodes are kept in an arena and addressed by handle. Splits and
// merges propagate along an explicit parent stack instead of recursion.
//
// A Tree is not safe for concurrent use. Callers that share one between
// goroutines must serialize mutations against each other and against any
// in-flight Range iteration.
package bptree

import (
	"cmp"
	"errors"
	"math"
	"slices"
)

var (
	// ErrInvalidOrder is returned by New when order < MinOrder.
	ErrInvalidOrder = errors.New("bptree: order must be at least 3")
	// ErrCapacity is returned by Insert when the node arena is exhausted.
	ErrCapacity = errors.New("bptree: node capacity exhausted")
)

// MinOrder is the smallest supported fanout.
const MinOrder = 3

// Tree is a B+ tree mapping keys of type K to values of type V.
type Tree[K any, V any] struct {
	order    int
	cmp      func(a, b K) int
	nodes    []*node[K, V]
	free     []nodeID
	root     nodeID
	height   int
	length   int
	maxNodes int
	path     []frame
}

// Option configures a Tree.
type Option func(*options)

type options struct {
	maxNodes int
}

// WithMaxNodes caps the number of live nodes. Inserts that would need more
// fail with ErrCapacity.
func WithMaxNodes(n int) Option {
	return func(o *options) {
		o.maxNodes = n
	}
}

// New returns an empty tree whose internal nodes hold at most order
// children. compare must define a total order over K.
func New[K any, V any](order int, compare func(a, b K) int, opts ...Option) (*Tree[K, V], error) {
	if order < MinOrder {
		return nil, ErrInvalidOrder
	}
	o := options{maxNodes: math.MaxInt32}
	for _, fn := range opts {
		fn(&o)
	}
	if o.maxNodes < 1 || o.maxNodes > math.MaxInt32 {
		o.maxNodes = math.MaxInt32
	}

	t := &Tree[K, V]{
		order:    order,
		cmp:      compare,
		maxNodes: o.maxNodes,
	}
	t.reset()
	return t, nil
}

// NewOrdered is New for key types with a natural ordering.
func NewOrdered[K cmp.Ordered, V any](order int, opts ...Option) (*Tree[K, V], error) {
	return New[K, V](order, cmp.Compare[K], opts...)
}

func (t *Tree[K, V]) reset() {
	t.nodes = t.nodes[:0]
	t.free = t.free[:0]
	t.root = t.newLeaf()
	t.height = 1
	t.length = 0
}

// Clear drops every entry and releases all nodes.
func (t *Tree[K, V]) Clear() {
	clear(t.nodes)
	t.reset()
}

// Order returns the maximum number of children per internal node.
func (t *Tree[K, V]) Order() int { return t.order }

// Len returns the number of entries.
func (t *Tree[K, V]) Len() int { return t.length }

// Height returns the number of levels, counting the leaf level. An empty
// tree has height 1.
func (t *Tree[K, V]) Height() int { return t.height }

// Get returns the value stored under key.
func (t *Tree[K, V]) Get(key K) (V, bool) {
	leaf := t.node(t.findLeaf(key))
	if i, found := slices.BinarySearchFunc(leaf.keys, key, t.cmp); found {
		return leaf.values[i], true
	}
	var zero V
	return zero, false
}

// Has reports whether key is present.
func (t *Tree[K, V]) Has(key K) bool {
	_, ok := t.Get(key)
	return ok
}

// childIndex picks the child of an internal node that covers key. A key
// equal to a separator routes right.
func (t *Tree[K, V]) childIndex(n *node[K, V], key K) int {
	i, found := slices.BinarySearchFunc(n.keys, key, t.cmp)
	if found {
		return i + 1
	}
	return i
}

func (t *Tree[K, V]) findLeaf(key K) nodeID {
	id := t.root
	for {
		n := t.node(id)
		if n.leaf {
			return id
		}
		if len(n.children) == 0 {
			panic("bptree: internal node without children")
		}
		id = n.children[t.childIndex(n, key)]
	}
}

// descend walks to the leaf for key, recording the path in t.path.
func (t *Tree[K, V]) descend(key K) nodeID {
	t.path = t.path[:0]
	id := t.root
	for {
		n := t.node(id)
		if n.leaf {
			return id
		}
		if len(n.children) == 0 {
			panic("bptree: internal node without children")
		}
		i := t.childIndex(n, key)
		t.path = append(t.path, frame{id: id, idx: i})
		id = n.children[i]
	}
}

// Stats describes the shape of a tree.
type Stats struct {
	Order  int
	Len    int
	Height int
	Nodes  int
	Leaves int
}

// Stats walks the leaf chain and reports the tree shape.
func (t *Tree[K, V]) Stats() Stats {
	leaves := 0
	for id := t.leftmostLeaf(); id != nilNode; id = t.node(id).next {
		leaves++
	}
	return Stats{
		Order:  t.order,
		Len:    t.length,
		Height: t.height,
		Nodes:  t.liveNodes(),
		Leaves: leaves,
	}
}

func (t *Tree[K, V]) leftmostLeaf() nodeID {
	id := t.root
	for {
		n := t.node(id)
		if n.leaf {
			return id
		}
		id = n.children[0]
	}
}
