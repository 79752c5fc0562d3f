package core

import (
	"fmt"
	"sync"

	"rangeindex/pkg/common"
	"rangeindex/pkg/core/bptree"
)

// OrderedCollection keeps records in a B+ tree keyed by (price, id), so a
// price range is a contiguous key range answered by one descent plus a
// leaf-chain walk. It is safe for concurrent use; a Scan holds the read
// lock until it returns.
type OrderedCollection struct {
	tree   *bptree.Tree[common.PriceKey, common.Record]
	prices map[int64]float64 // id -> price currently indexed
	lock   sync.RWMutex
}

var _ Collection = (*OrderedCollection)(nil)
var _ Deleter = (*OrderedCollection)(nil)

func NewOrderedCollection(order int, opts ...bptree.Option) (*OrderedCollection, error) {
	tree, err := bptree.New[common.PriceKey, common.Record](order, common.ComparePriceKey, opts...)
	if err != nil {
		return nil, err
	}
	return &OrderedCollection{
		tree:   tree,
		prices: make(map[int64]float64),
	}, nil
}

// Put stores rec under its ID. When the price changes the new key goes in
// first, so a failed insert leaves the previous version in place.
func (c *OrderedCollection) Put(rec common.Record) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	old, exists := c.prices[rec.ID]
	if err := c.tree.Insert(rec.Key(), rec); err != nil {
		return fmt.Errorf("ordered: put %d: %w", rec.ID, err)
	}
	if exists && old != rec.Price {
		if !c.tree.Delete(common.PriceKey{Price: old, ID: rec.ID}) {
			panic(fmt.Sprintf("ordered collection lost key (%v, %d)", old, rec.ID))
		}
	}
	c.prices[rec.ID] = rec.Price
	return nil
}

func (c *OrderedCollection) Get(id int64) (common.Record, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	price, ok := c.prices[id]
	if !ok {
		return common.Record{}, false
	}
	return c.tree.Get(common.PriceKey{Price: price, ID: id})
}

func (c *OrderedCollection) Delete(id int64) (bool, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	price, ok := c.prices[id]
	if !ok {
		return false, nil
	}
	delete(c.prices, id)
	return c.tree.Delete(common.PriceKey{Price: price, ID: id}), nil
}

// Scan yields matches in ascending (price, id) order. fn must not call back
// into a method that takes the write lock.
func (c *OrderedCollection) Scan(minPrice, maxPrice float64, fn func(common.Record) bool) error {
	c.lock.RLock()
	defer c.lock.RUnlock()

	lo, hi := common.PriceBounds(minPrice, maxPrice)
	for _, rec := range c.tree.Range(lo, hi) {
		if !fn(rec) {
			break
		}
	}
	return nil
}

func (c *OrderedCollection) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.tree.Len()
}

func (c *OrderedCollection) Type() string { return "bptree" }

// Stats exposes the underlying tree shape.
func (c *OrderedCollection) Stats() bptree.Stats {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.tree.Stats()
}

// Check validates the underlying tree.
func (c *OrderedCollection) Check() error {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.tree.Check()
}

func (c *OrderedCollection) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.tree.Clear()
	clear(c.prices)
	return nil
}
