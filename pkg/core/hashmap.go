package core

import "rangeindex/pkg/common"

// HashCollection is an unordered id -> record map. It answers a price
// range by scanning every value, which is the baseline the ordered index is
// measured against.
type HashCollection struct {
	items map[int64]common.Record
}

var _ Collection = (*HashCollection)(nil)
var _ Deleter = (*HashCollection)(nil)

func NewHashCollection(sizeHint int) *HashCollection {
	return &HashCollection{items: make(map[int64]common.Record, sizeHint)}
}

func (c *HashCollection) Put(rec common.Record) error {
	c.items[rec.ID] = rec
	return nil
}

func (c *HashCollection) Get(id int64) (common.Record, bool) {
	rec, ok := c.items[id]
	return rec, ok
}

func (c *HashCollection) Delete(id int64) (bool, error) {
	_, ok := c.items[id]
	delete(c.items, id)
	return ok, nil
}

func (c *HashCollection) Scan(minPrice, maxPrice float64, fn func(common.Record) bool) error {
	for _, rec := range c.items {
		if rec.InPriceRange(minPrice, maxPrice) && !fn(rec) {
			break
		}
	}
	return nil
}

func (c *HashCollection) Len() int     { return len(c.items) }
func (c *HashCollection) Type() string { return "hashmap" }

func (c *HashCollection) Close() error {
	clear(c.items)
	return nil
}
