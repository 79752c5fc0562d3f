package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"

	"rangeindex/pkg/common"
)

var (
	categories = []string{"Electronics", "Books", "Clothing", "Home", "Toys", "Sports", "Garden", "Grocery"}
	adjectives = []string{"Classic", "Compact", "Deluxe", "Eco", "Mini", "Pro", "Smart", "Ultra"}
	nouns      = []string{"Lamp", "Chair", "Phone", "Novel", "Jacket", "Kettle", "Racket", "Drone", "Puzzle", "Shovel"}
)

// Generate returns n records with IDs 1..n and prices uniform in
// [0, maxPrice], rounded to cents. The same seed yields the same records.
func Generate(n int, seed uint64, maxPrice float64) []common.Record {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	records := make([]common.Record, n)
	for i := range records {
		records[i] = common.Record{
			ID:       int64(i + 1),
			Name:     fmt.Sprintf("%s %s %d", adjectives[rng.IntN(len(adjectives))], nouns[rng.IntN(len(nouns))], i+1),
			Category: categories[rng.IntN(len(categories))],
			Price:    math.Round(rng.Float64()*maxPrice*100) / 100,
		}
	}
	return records
}
