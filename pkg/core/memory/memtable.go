package memory

import (
	"sync"

	"rangeindex/pkg/common"

	"github.com/google/btree"
)

func less(a, b common.Record) bool {
	return common.ComparePriceKey(a.Key(), b.Key()) < 0
}

// MemTable is the ordered reference collection backed by google/btree.
type MemTable struct {
	tree   *btree.BTreeG[common.Record]
	prices map[int64]float64
	lock   sync.RWMutex
}

func NewMemTable(degree int) *MemTable {
	return &MemTable{
		tree:   btree.NewG(degree, less),
		prices: make(map[int64]float64),
	}
}

func (mt *MemTable) Put(rec common.Record) error {
	mt.lock.Lock()
	defer mt.lock.Unlock()

	if old, ok := mt.prices[rec.ID]; ok && old != rec.Price {
		mt.tree.Delete(common.Record{ID: rec.ID, Price: old})
	}
	mt.tree.ReplaceOrInsert(rec)
	mt.prices[rec.ID] = rec.Price
	return nil
}

func (mt *MemTable) Get(id int64) (common.Record, bool) {
	mt.lock.RLock()
	defer mt.lock.RUnlock()

	price, ok := mt.prices[id]
	if !ok {
		return common.Record{}, false
	}
	return mt.tree.Get(common.Record{ID: id, Price: price})
}

func (mt *MemTable) Delete(id int64) (bool, error) {
	mt.lock.Lock()
	defer mt.lock.Unlock()

	price, ok := mt.prices[id]
	if !ok {
		return false, nil
	}
	delete(mt.prices, id)
	_, found := mt.tree.Delete(common.Record{ID: id, Price: price})
	return found, nil
}

// Scan walks [minPrice, maxPrice] in ascending (price, id) order.
func (mt *MemTable) Scan(minPrice, maxPrice float64, fn func(common.Record) bool) error {
	if minPrice > maxPrice {
		return nil
	}
	mt.lock.RLock()
	defer mt.lock.RUnlock()

	lo, hi := common.PriceBounds(minPrice, maxPrice)
	mt.tree.AscendGreaterOrEqual(common.Record{ID: lo.ID, Price: lo.Price}, func(rec common.Record) bool {
		if common.ComparePriceKey(rec.Key(), hi) > 0 {
			return false
		}
		return fn(rec)
	})
	return nil
}

func (mt *MemTable) Len() int {
	mt.lock.RLock()
	defer mt.lock.RUnlock()
	return mt.tree.Len()
}

func (mt *MemTable) Type() string { return "gbtree" }

func (mt *MemTable) Close() error {
	mt.lock.Lock()
	defer mt.lock.Unlock()
	mt.tree.Clear(false)
	clear(mt.prices)
	return nil
}
