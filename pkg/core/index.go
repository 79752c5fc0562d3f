package core

import "rangeindex/pkg/common"

// Collection 抽象接口，屏蔽有序索引与哈希表等实现的差异。
// The benchmark harness only ever talks to a Collection.
type Collection interface {
	// Put stores rec under its ID; a later Put with the same ID wins.
	Put(rec common.Record) error
	// Scan calls fn for every record with minPrice <= Price <= maxPrice
	// until fn returns false. Order is implementation defined.
	Scan(minPrice, maxPrice float64, fn func(common.Record) bool) error
	Len() int
	Type() string // "bptree", "hashmap", "gbtree", "sqlite", "pebble"
	Close() error
}

// Deleter is implemented by collections that support removal by ID.
type Deleter interface {
	Delete(id int64) (bool, error)
}

// ScanAll collects the result of c.Scan into a slice.
func ScanAll(c Collection, minPrice, maxPrice float64) ([]common.Record, error) {
	var out []common.Record
	err := c.Scan(minPrice, maxPrice, func(r common.Record) bool {
		out = append(out, r)
		return true
	})
	return out, err
}
