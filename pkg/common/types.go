package common

import (
	"cmp"
	"fmt"
	"math"
)

// Record is one catalogue item as loaded from the dataset.
type Record struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}

// String 方便调试打印
func (r Record) String() string {
	return fmt.Sprintf("Record{ID: %d, Name: %q, Category: %q, Price: %.2f}", r.ID, r.Name, r.Category, r.Price)
}

// PriceKey orders records by price, then by ID, so equal prices never
// collide in an ordered index.
type PriceKey struct {
	Price float64
	ID    int64
}

// Key returns the ordered-index key of r.
func (r Record) Key() PriceKey {
	return PriceKey{Price: r.Price, ID: r.ID}
}

// ComparePriceKey is the total order over PriceKey.
func ComparePriceKey(a, b PriceKey) int {
	if c := cmp.Compare(a.Price, b.Price); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// PriceBounds returns the smallest and largest keys whose price lies in
// [minPrice, maxPrice].
func PriceBounds(minPrice, maxPrice float64) (PriceKey, PriceKey) {
	return PriceKey{Price: minPrice, ID: math.MinInt64}, PriceKey{Price: maxPrice, ID: math.MaxInt64}
}

// InPriceRange reports whether r.Price lies in [minPrice, maxPrice].
func (r Record) InPriceRange(minPrice, maxPrice float64) bool {
	return minPrice <= r.Price && r.Price <= maxPrice
}
