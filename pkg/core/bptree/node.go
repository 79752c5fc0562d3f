package bptree

import "fmt"

// nodeID is a handle into the tree's node arena. Leaf chain links are
// nodeIDs as well, so they never own the node they point at.
type nodeID int32

const nilNode nodeID = -1

type node[K any, V any] struct {
	leaf     bool
	keys     []K
	values   []V      // leaf only, aligned with keys
	children []nodeID // internal only, len(keys)+1
	next     nodeID   // leaf only
}

// frame records one step of a root-to-leaf descent.
type frame struct {
	id  nodeID
	idx int // child slot taken in id
}

func (t *Tree[K, V]) newLeaf() nodeID {
	return t.alloc(&node[K, V]{
		leaf:   true,
		keys:   make([]K, 0, t.order),
		values: make([]V, 0, t.order),
		next:   nilNode,
	})
}

func (t *Tree[K, V]) newInternal() nodeID {
	return t.alloc(&node[K, V]{
		keys:     make([]K, 0, t.order),
		children: make([]nodeID, 0, t.order+1),
		next:     nilNode,
	})
}

func (t *Tree[K, V]) alloc(n *node[K, V]) nodeID {
	if k := len(t.free); k > 0 {
		id := t.free[k-1]
		t.free = t.free[:k-1]
		t.nodes[id] = n
		return id
	}
	t.nodes = append(t.nodes, n)
	return nodeID(len(t.nodes) - 1)
}

func (t *Tree[K, V]) release(id nodeID) {
	t.node(id) // panics on double free
	t.nodes[id] = nil
	t.free = append(t.free, id)
}

// node resolves a handle. A dangling handle is a structural defect.
func (t *Tree[K, V]) node(id nodeID) *node[K, V] {
	if id < 0 || int(id) >= len(t.nodes) || t.nodes[id] == nil {
		panic(fmt.Sprintf("bptree: dangling node handle %d", id))
	}
	return t.nodes[id]
}

func (t *Tree[K, V]) liveNodes() int {
	return len(t.nodes) - len(t.free)
}

func (t *Tree[K, V]) maxKeys() int { return t.order - 1 }

func (t *Tree[K, V]) minChildren() int { return (t.order + 1) / 2 }

func (t *Tree[K, V]) minLeafKeys() int {
	if m := t.minChildren() - 1; m > 1 {
		return m
	}
	return 1
}

func (t *Tree[K, V]) underflows(n *node[K, V]) bool {
	if n.leaf {
		return len(n.keys) < t.minLeafKeys()
	}
	return len(n.children) < t.minChildren()
}

func (t *Tree[K, V]) canLend(n *node[K, V]) bool {
	if n.leaf {
		return len(n.keys) > t.minLeafKeys()
	}
	return len(n.children) > t.minChildren()
}
